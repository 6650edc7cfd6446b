package serialization

import (
	"compress/gzip"
	"encoding/gob"
	"encoding/json"
	"io"
	"reflect"

	"github.com/golang/snappy"
	"github.com/kiteco/enzh-datagen/kite-golib/errors"
	"github.com/kiteco/enzh-datagen/kite-golib/fileutil"
)

// Decoder is an interface that matches gob.Decoder and json.Decoder
type Decoder interface {
	// Decode extracts an object from the stream
	Decode(interface{}) error
}

// ErrStop is a special value returned from handlers to cease processing
var ErrStop = errors.New("stop processing requested")

// decodeWith with extracts objects from the given decoder and passes them to the handler
func decodeWith(d Decoder, elemType reflect.Type, handler func(interface{}) error) error {
	for {
		elem := reflect.New(elemType).Interface()
		err := d.Decode(elem)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		err = handler(elem)
		if err == ErrStop {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// Decode loads a series of objects from a file written by NewEncoder. The handler
// is a function taking a pointer to the element type, optionally returning an error:
//
//   err := serialization.Decode(fs, "/data/train.json.gz", func(s *pipeline.Sample) error {
//     samples = append(samples, *s)
//     return nil
//   })
func Decode(fs fileutil.FileSystem, path string, handler interface{}) (err error) {
	r, err := fs.Open(path)
	if err != nil {
		return errors.Wrapf(err, "error loading %s", path)
	}
	defer errors.Defer(&err, r.Close)
	return decodeAs(r, path, handler)
}

// decodeAs is like Decode but uses the provided path to determine the compression and
// encoding used in the file.
func decodeAs(r io.Reader, path string, handler interface{}) error {
	format, compression := splitExt(path)

	switch compression {
	case ".gz":
		rd, err := gzip.NewReader(r)
		if err != nil {
			return errors.Wrapf(err, "error loading %s", path)
		}
		defer rd.Close()
		r = rd
	case ".sz":
		r = snappy.NewReader(r)
	}

	var d Decoder
	switch format {
	case ".json":
		d = json.NewDecoder(r)
	case ".gob":
		d = gob.NewDecoder(r)
	default:
		return errors.Errorf("could not find decoder for %s", path)
	}

	// Examine the function signature
	f := reflect.ValueOf(handler)
	if f.Kind() != reflect.Func {
		panic("expected a function as last parameter")
	}

	funcType := f.Type()
	if funcType.NumIn() != 1 {
		panic("expected a function with one input parameter")
	}
	if funcType.NumOut() > 1 {
		panic("expected a function with zero or one output parameter")
	}
	ptrType := funcType.In(0)
	if ptrType.Kind() != reflect.Ptr {
		panic("expected function parameter to be a pointer")
	}

	err := decodeWith(d, ptrType.Elem(), func(x interface{}) error {
		ret := f.Call([]reflect.Value{reflect.ValueOf(x)})
		if len(ret) == 0 || ret[0].IsNil() {
			return nil
		}
		return ret[0].Interface().(error)
	})
	return errors.WrapfOrNil(err, "error decoding %s", path)
}
