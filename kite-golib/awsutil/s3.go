package awsutil

import (
	"io"
	"io/ioutil"
	"net/url"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/kiteco/enzh-datagen/kite-golib/envutil"
	"github.com/kiteco/enzh-datagen/kite-golib/errors"
)

// DefaultRegion is used to discover bucket locations
var DefaultRegion = envutil.GetenvDefault("AWS_REGION", "us-west-1")

// IsS3URI returns true if the path is an s3 uri.
func IsS3URI(path string) bool {
	return strings.HasPrefix(path, "s3://")
}

// ValidateURI checks whether the given uri points to S3.
func ValidateURI(uri string) (*url.URL, error) {
	s3url, err := url.Parse(uri)
	if err != nil {
		return nil, err
	}
	if s3url.Scheme != "s3" {
		return nil, errors.Errorf("%s: url is not a s3 path", uri)
	}
	if s3url.Host == "" {
		return nil, errors.Errorf("%s: url has no bucket", uri)
	}
	return s3url, nil
}

func key(u *url.URL) string {
	return strings.TrimPrefix(u.Path, "/")
}

// clientFor creates an s3 client for the region the bucket lives in
func clientFor(u *url.URL) (*s3.S3, error) {
	sess, err := session.NewSession()
	if err != nil {
		return nil, err
	}

	loc, err := s3.New(sess, aws.NewConfig().WithRegion(DefaultRegion)).GetBucketLocation(&s3.GetBucketLocationInput{
		Bucket: aws.String(u.Host),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "unable to determine region of %s", u.Host)
	}

	region := "us-east-1"
	if loc.LocationConstraint != nil {
		region = *loc.LocationConstraint
	}
	return s3.New(sess, aws.NewConfig().WithRegion(region)), nil
}

// NewS3Reader returns a io.ReadCloser that will read the contents
// of the file pointed to by the uri. URI will be of the form
// s3://bucket-name/path/to/file
func NewS3Reader(uri string) (io.ReadCloser, error) {
	u, err := ValidateURI(uri)
	if err != nil {
		return nil, err
	}
	client, err := clientFor(u)
	if err != nil {
		return nil, err
	}

	out, err := client.GetObject(&s3.GetObjectInput{
		Bucket: aws.String(u.Host),
		Key:    aws.String(key(u)),
	})
	if err != nil {
		return nil, err
	}
	return out.Body, nil
}

// Exists returns whether an object exists at the provided URI
func Exists(uri string) (bool, error) {
	u, err := ValidateURI(uri)
	if err != nil {
		return false, err
	}
	client, err := clientFor(u)
	if err != nil {
		return false, err
	}

	_, err = client.HeadObject(&s3.HeadObjectInput{
		Bucket: aws.String(u.Host),
		Key:    aws.String(key(u)),
	})
	if IsNotFound(err) {
		return false, nil
	}
	return err == nil, err
}

// Remove deletes the object at the provided URI
func Remove(uri string) error {
	u, err := ValidateURI(uri)
	if err != nil {
		return err
	}
	client, err := clientFor(u)
	if err != nil {
		return err
	}

	_, err = client.DeleteObject(&s3.DeleteObjectInput{
		Bucket: aws.String(u.Host),
		Key:    aws.String(key(u)),
	})
	return errors.WrapfOrNil(err, "error deleting %s", uri)
}

// Rename copies the object at from to to, then deletes from
func Rename(from, to string) error {
	src, err := ValidateURI(from)
	if err != nil {
		return err
	}
	dst, err := ValidateURI(to)
	if err != nil {
		return err
	}
	client, err := clientFor(dst)
	if err != nil {
		return err
	}

	_, err = client.CopyObject(&s3.CopyObjectInput{
		Bucket:     aws.String(dst.Host),
		Key:        aws.String(key(dst)),
		CopySource: aws.String(copySource(src)),
	})
	if err != nil {
		return errors.Wrapf(err, "error copying %s to %s", from, to)
	}
	return Remove(from)
}

// copySource is the url encoded bucket/key form CopyObject expects
func copySource(u *url.URL) string {
	return (&url.URL{Path: u.Host + "/" + key(u)}).EscapedPath()
}

// IsNotFound returns true if err is an S3 error for a missing object or bucket
func IsNotFound(err error) bool {
	aerr, ok := errors.Cause(err).(awserr.Error)
	if !ok {
		return false
	}
	switch aerr.Code() {
	case s3.ErrCodeNoSuchKey, s3.ErrCodeNoSuchBucket, "NotFound":
		return true
	}
	return false
}

// NamedWriteCloser is a file-like object extending io.WriteCloser with a string Name() similar to os.File.Name()
type NamedWriteCloser interface {
	io.WriteCloser
	Name() string
}

type bufferedS3Writer struct {
	f   *os.File
	uri *url.URL
}

// NewBufferedS3Writer returns an io.WriteCloser that will write
// to disk and upload to S3 on Close
func NewBufferedS3Writer(uri string) (NamedWriteCloser, error) {
	u, err := ValidateURI(uri)
	if err != nil {
		return nil, err
	}

	f, err := ioutil.TempFile("", "s3buffer")
	if err != nil {
		return nil, err
	}
	return bufferedS3Writer{f: f, uri: u}, nil
}

// Write writes to disk
func (w bufferedS3Writer) Write(p []byte) (int, error) {
	return w.f.Write(p)
}

// Close copies the written data to s3, then removes the local buffer
func (w bufferedS3Writer) Close() (err error) {
	defer os.Remove(w.f.Name())
	defer errors.Defer(&err, w.f.Close)

	if _, err := w.f.Seek(0, io.SeekStart); err != nil {
		return err
	}

	client, err := clientFor(w.uri)
	if err != nil {
		return err
	}

	_, err = client.PutObject(&s3.PutObjectInput{
		Bucket: aws.String(w.uri.Host),
		Key:    aws.String(key(w.uri)),
		Body:   w.f,
	})
	return errors.WrapfOrNil(err, "error uploading %s", w.uri)
}

// Name returns the destination uri
func (w bufferedS3Writer) Name() string {
	return w.uri.String()
}
