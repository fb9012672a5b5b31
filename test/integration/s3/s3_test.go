//go:build integration

package s3_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/marmos91/xptkit/pkg/source"
	"github.com/marmos91/xptkit/pkg/xpt"
	"github.com/marmos91/xptkit/pkg/xpt/xpttest"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// localstackHelper manages the Localstack container for S3 integration tests.
type localstackHelper struct {
	container testcontainers.Container
	endpoint  string
	client    *s3.Client
}

// newLocalstackHelper starts a Localstack container or connects to an existing one.
func newLocalstackHelper(t *testing.T) *localstackHelper {
	t.Helper()
	ctx := context.Background()

	// Check if external Localstack is configured via environment
	if endpoint := os.Getenv("LOCALSTACK_ENDPOINT"); endpoint != "" {
		helper := &localstackHelper{endpoint: endpoint}
		helper.createClient(t)
		return helper
	}

	req := testcontainers.ContainerRequest{
		Image:        "localstack/localstack:3.0",
		ExposedPorts: []string{"4566/tcp"},
		Env: map[string]string{
			"SERVICES":              "s3",
			"DEFAULT_REGION":        "us-east-1",
			"EAGER_SERVICE_LOADING": "1",
		},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("4566/tcp"),
			wait.ForHTTP("/_localstack/health").
				WithPort("4566/tcp").
				WithStartupTimeout(60*time.Second),
		),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("failed to start localstack container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "4566")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get container port: %v", err)
	}

	helper := &localstackHelper{
		container: container,
		endpoint:  fmt.Sprintf("http://%s:%s", host, port.Port()),
	}
	helper.createClient(t)

	return helper
}

// createClient creates an S3 client configured for Localstack.
func (lh *localstackHelper) createClient(t *testing.T) {
	t.Helper()

	cfg, err := awsConfig.LoadDefaultConfig(context.Background(),
		awsConfig.WithRegion("us-east-1"),
		awsConfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			"test", "test", "",
		)),
	)
	if err != nil {
		t.Fatalf("Failed to load AWS config: %v", err)
	}

	lh.client = s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = &lh.endpoint
		o.UsePathStyle = true
	})
}

// s3Config returns the source configuration pointing at Localstack.
func (lh *localstackHelper) s3Config() source.S3Config {
	return source.S3Config{
		Region:          "us-east-1",
		Endpoint:        lh.endpoint,
		ForcePathStyle:  true,
		AccessKeyID:     "test",
		SecretAccessKey: "test",
	}
}

// createBucket creates a new S3 bucket.
func (lh *localstackHelper) createBucket(t *testing.T, bucketName string) {
	t.Helper()

	_, err := lh.client.CreateBucket(context.Background(), &s3.CreateBucketInput{
		Bucket: aws.String(bucketName),
	})
	if err != nil {
		t.Fatalf("Failed to create test bucket: %v", err)
	}
}

func (lh *localstackHelper) putObject(t *testing.T, bucketName, key string, data []byte) {
	t.Helper()

	_, err := lh.client.PutObject(context.Background(), &s3.PutObjectInput{
		Bucket: aws.String(bucketName),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		t.Fatalf("Failed to upload %s: %v", key, err)
	}
}

// cleanupBucket removes a bucket and all its contents.
func (lh *localstackHelper) cleanupBucket(bucketName string) {
	ctx := context.Background()

	listResp, _ := lh.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucketName),
	})
	if listResp != nil {
		for _, obj := range listResp.Contents {
			_, _ = lh.client.DeleteObject(ctx, &s3.DeleteObjectInput{
				Bucket: aws.String(bucketName),
				Key:    obj.Key,
			})
		}
	}

	_, _ = lh.client.DeleteBucket(ctx, &s3.DeleteBucketInput{
		Bucket: aws.String(bucketName),
	})
}

// cleanup terminates the container if one was started.
func (lh *localstackHelper) cleanup() {
	if lh.container != nil {
		_ = lh.container.Terminate(context.Background())
	}
}

func labs() *xpttest.Builder {
	b := xpttest.New().
		String("USUBJID", "Unique Subject Identifier", 8).
		String("LBTESTCD", "Lab Test Short Name", 8).
		Numeric("LBSTRESN", "Numeric Result")
	for i := 0; i < 250; i++ {
		b.Row(fmt.Sprintf("01-%03d", i), "GLUC", float64(i)+0.25)
	}
	return b
}

func TestS3Source(t *testing.T) {
	helper := newLocalstackHelper(t)
	defer helper.cleanup()

	bucket := fmt.Sprintf("xpt-test-%d", time.Now().UnixNano())
	helper.createBucket(t, bucket)
	defer helper.cleanupBucket(bucket)

	fixture := labs()
	helper.putObject(t, bucket, "study-01/lb.xpt", fixture.Bytes())

	opener := source.NewOpener(source.WithS3Config(helper.s3Config()))
	ctx := context.Background()

	t.Run("OpenStreamsObject", func(t *testing.T) {
		rc, err := opener.Open(ctx, "s3://"+bucket+"/study-01/lb.xpt")
		if err != nil {
			t.Fatalf("Open failed: %v", err)
		}
		defer func() { _ = rc.Close() }()

		data, err := io.ReadAll(rc)
		if err != nil {
			t.Fatalf("ReadAll failed: %v", err)
		}
		if !bytes.Equal(data, fixture.Bytes()) {
			t.Errorf("object content differs: got %d bytes, want %d", len(data), len(fixture.Bytes()))
		}
	})

	t.Run("DecodeSession", func(t *testing.T) {
		s, err := opener.OpenSession(ctx, "s3://"+bucket+"/study-01/lb.xpt")
		if err != nil {
			t.Fatalf("OpenSession failed: %v", err)
		}
		defer func() { _ = s.Close() }()

		if err := s.ReadHeaders(); err != nil {
			t.Fatalf("ReadHeaders failed: %v", err)
		}
		if got := s.VariableCount(); got != 3 {
			t.Errorf("Expected 3 variables, got %d", got)
		}
		if got := s.Offset(); got != fixture.DataOffset() {
			t.Errorf("Expected data offset %d, got %d", fixture.DataOffset(), got)
		}

		var n int
		for {
			row, ok, err := s.ReadRow()
			if err != nil {
				t.Fatalf("ReadRow %d failed: %v", n+1, err)
			}
			if !ok {
				break
			}
			if got, want := row.At(2).Float(), float64(n)+0.25; got != want {
				t.Fatalf("row %d: LBSTRESN = %v, want %v", n+1, got, want)
			}
			n++
		}
		if n != 250 {
			t.Errorf("Expected 250 rows, got %d", n)
		}
	})

	t.Run("MissingObject", func(t *testing.T) {
		_, err := opener.OpenSession(ctx, "s3://"+bucket+"/study-01/missing.xpt")
		var oerr *xpt.OpenError
		if !errors.As(err, &oerr) {
			t.Fatalf("Expected *xpt.OpenError, got %v", err)
		}
	})

	t.Run("MissingBucket", func(t *testing.T) {
		_, err := opener.Open(ctx, "s3://no-such-bucket-"+bucket+"/lb.xpt")
		if err == nil {
			t.Fatal("Expected error for missing bucket")
		}
	})
}
