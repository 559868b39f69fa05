/*
Copyright © 2020 the seaice authors.
This file is part of seaice.

seaice is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

seaice is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with seaice.  If not, see <http://www.gnu.org/licenses/>.
*/

package seaiceutil

import (
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/cenkalti/backoff"
	"github.com/google/go-cloud/blob"
	"github.com/google/go-cloud/blob/fileblob"
	"github.com/google/go-cloud/blob/gcsblob"
	"github.com/google/go-cloud/blob/s3blob"
	"github.com/google/go-cloud/gcp"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/seaice"
)

// DownloadRange fetches the daily input files for the given products
// and date range into the given directories. Files that already exist
// are kept unless overwrite is set. Remote files that don't exist (the
// NIC charts were not produced every day early in the record) are
// logged and skipped rather than failing the download.
func DownloadRange(start, end time.Time, hemi seaice.Hemisphere, products []string, cdrDir, nicDir string, overwrite bool) error {
	type target struct{ url, dest string }
	var targets []target
	for date := start; date.Before(end); date = date.AddDate(0, 0, 1) {
		for _, p := range products {
			var dir, file, destDir string
			var err error
			switch p {
			case "cdr":
				dir, file, err = seaice.CDRFileName(date, hemi)
				destDir = cdrDir
			case "nic":
				dir, file, err = seaice.NICFileName(date, hemi)
				destDir = nicDir
			default:
				err = fmt.Errorf("seaice: unknown product '%s'", p)
			}
			if err != nil {
				return err
			}
			targets = append(targets, target{url: dir + file, dest: filepath.Join(destDir, file)})
		}
	}
	for _, dir := range []string{cdrDir, nicDir} {
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return fmt.Errorf("seaice: creating download directory: %v", err)
		}
	}
	for _, tg := range targets {
		if !overwrite {
			if _, err := os.Stat(tg.dest); err == nil {
				continue
			}
		}
		err := backoff.RetryNotify(
			func() error { return downloadFile(tg.url, tg.dest) },
			backoff.NewExponentialBackOff(),
			func(err error, d time.Duration) {
				logrus.WithFields(logrus.Fields{
					"url": tg.url,
				}).Warnf("%v: retrying in %v", err, d)
			},
		)
		if err != nil {
			if strings.Contains(err.Error(), "status 404") {
				logrus.WithFields(logrus.Fields{
					"url": tg.url,
				}).Info("not available; skipping")
				continue
			}
			return err
		}
		logrus.WithFields(logrus.Fields{
			"file": tg.dest,
		}).Info("downloaded")
	}
	return nil
}

// downloadFile fetches one file over HTTP, writing it to dest only
// after the whole body has been received.
func downloadFile(rawurl, dest string) error {
	resp, err := http.Get(rawurl)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("seaice: downloading %s: status %d", rawurl, resp.StatusCode)
		if resp.StatusCode == http.StatusNotFound {
			return backoff.Permanent(err)
		}
		return err
	}
	tmp := dest + ".part"
	w, err := os.Create(tmp)
	if err != nil {
		return backoff.Permanent(err)
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		w.Close()
		os.Remove(tmp)
		return err
	}
	if err := w.Close(); err != nil {
		return backoff.Permanent(err)
	}
	return os.Rename(tmp, dest)
}

// IsBlob returns whether the given filename represents a blob.
// (i.e., if it starts with `gs://`, 's3://', or 'file://').
func IsBlob(path string) bool {
	return strings.HasPrefix(path, "gs://") || strings.HasPrefix(path, "s3://") || strings.HasPrefix(path, "file://")
}

// localInputDir makes the named input files available in a local
// directory. If dir is a local path it is returned unchanged;
// otherwise the files are copied out of the blob storage bucket it
// names into a temporary directory. Files missing from the bucket are
// reported to c and skipped, so they show up later as data gaps.
func localInputDir(ctx context.Context, dir string, files []string, c chan string) (string, error) {
	if !IsBlob(dir) {
		return dir, nil
	}
	u, err := url.Parse(dir)
	if err != nil {
		return "", fmt.Errorf("seaice: parsing input location %s: %v", dir, err)
	}
	bucket, err := OpenBucket(ctx, u.Scheme+"://"+u.Host)
	if err != nil {
		return "", err
	}
	local, err := ioutil.TempDir("", "seaice")
	if err != nil {
		return "", fmt.Errorf("seaice: creating temporary input directory: %v", err)
	}
	prefix := strings.TrimPrefix(u.Path, "/")
	for _, file := range files {
		r, err := bucket.NewReader(ctx, path.Join(prefix, file))
		if err != nil {
			if c != nil {
				c <- fmt.Sprintf("Skipping %s: %v\n", file, err)
			}
			continue
		}
		w, err := os.Create(filepath.Join(local, file))
		if err != nil {
			r.Close()
			return "", err
		}
		if _, err := io.Copy(w, r); err != nil {
			w.Close()
			r.Close()
			return "", fmt.Errorf("seaice: copying %s from %s: %v", file, dir, err)
		}
		w.Close()
		r.Close()
	}
	return local, nil
}

// OpenBucket returns the blob storage bucket specified by bucketName,
// where bucketName must be in the format 'provider://name' where provider
// is the name of the storage provider and name is the name of the bucket.
// The currently accepted storage providers are "file" for the local
// filesystem (e.g., for testing), "gs" for Google Cloud Storage, and
// "s3" for AWS S3.
func OpenBucket(ctx context.Context, bucketName string) (*blob.Bucket, error) {
	url, err := url.Parse(bucketName)
	if err != nil {
		return nil, fmt.Errorf("seaice: opening bucket %s: %v", bucketName, err)
	}
	switch url.Scheme {
	case "file":
		return fileblob.NewBucket(url.Hostname())
	case "gs":
		return gsBucket(ctx, url.Hostname())
	case "s3":
		return s3Bucket(ctx, url.Hostname())
	default:
		return nil, fmt.Errorf("seaice: opening bucket %s: invalid provider %s", bucketName, url.Scheme)
	}
}

func gsBucket(ctx context.Context, name string) (*blob.Bucket, error) {
	// See here for information on credentials:
	// https://cloud.google.com/docs/authentication/getting-started
	creds, err := gcp.DefaultCredentials(ctx)
	if err != nil {
		return nil, err
	}
	c, err := gcp.NewHTTPClient(gcp.DefaultTransport(), gcp.CredentialsTokenSource(creds))
	if err != nil {
		return nil, err
	}
	return gcsblob.OpenBucket(ctx, name, c)
}

// s3Bucket opens an s3 storage bucket. It assumes the following
// environment variables are set: AWS_REGION, AWS_ACCESS_KEY_ID, and
// AWS_SECRET_ACCESS_KEY.
func s3Bucket(ctx context.Context, name string) (*blob.Bucket, error) {
	region := os.ExpandEnv("AWS_REGION")
	if region == "" {
		region = "us-east-2"
	}
	c := &aws.Config{
		Region:      aws.String(region),
		Credentials: credentials.NewEnvCredentials(),
	}
	s := session.Must(session.NewSession(c))
	return s3blob.OpenBucket(ctx, s, name)
}
