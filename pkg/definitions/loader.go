package definitions

import (
	"context"
	"encoding/json"
	"io"
	"net/url"
	"os"
	"path"
	"strings"
	"sync"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pkg/errors"

	"github.com/vigil-monitoring/vigil/pkg/logger"
)

// Loader fetches definition documents from local files or S3 and decodes
// them. Definitions are re-read every cycle so edits take effect without a
// restart.
type Loader struct {
	log *logger.Logger

	s3Mu     sync.Mutex
	s3Client *s3.Client
}

// NewLoader creates a Loader.
func NewLoader(log *logger.Logger) *Loader {
	return &Loader{log: log}
}

// Endpoints loads and decodes the endpoint definition tree from uri.
func (l *Loader) Endpoints(ctx context.Context, uri string) (*EndpointDefinitions, error) {
	var defs EndpointDefinitions
	if err := l.load(ctx, uri, &defs); err != nil {
		return nil, errors.Wrap(err, "load endpoint definitions")
	}
	return &defs, nil
}

// Alerts loads and decodes the alert definitions from uri.
func (l *Loader) Alerts(ctx context.Context, uri string) (*AlertDefinitions, error) {
	var defs AlertDefinitions
	if err := l.load(ctx, uri, &defs); err != nil {
		return nil, errors.Wrap(err, "load alert definitions")
	}
	return &defs, nil
}

// Metrics loads and decodes the metrics definitions from uri.
func (l *Loader) Metrics(ctx context.Context, uri string) (*MetricsDefinitions, error) {
	var defs MetricsDefinitions
	if err := l.load(ctx, uri, &defs); err != nil {
		return nil, errors.Wrap(err, "load metrics definitions")
	}
	return &defs, nil
}

func (l *Loader) load(ctx context.Context, uri string, out interface{}) error {
	data, err := l.fetch(ctx, uri)
	if err != nil {
		return err
	}

	switch strings.ToLower(path.Ext(uri)) {
	case ".yaml", ".yml":
		return yamlUnmarshal(data, out)
	default:
		return json.Unmarshal(data, out)
	}
}

// fetch reads the raw bytes behind uri: s3://bucket/key goes through the S3
// client, anything else is treated as a local path.
func (l *Loader) fetch(ctx context.Context, uri string) ([]byte, error) {
	if !strings.HasPrefix(strings.ToLower(uri), "s3://") {
		return os.ReadFile(uri)
	}

	parsed, err := url.Parse(uri)
	if err != nil {
		return nil, errors.Wrapf(err, "parse s3 uri %q", uri)
	}

	client, err := l.s3(ctx)
	if err != nil {
		return nil, err
	}

	bucket := parsed.Host
	key := strings.TrimPrefix(parsed.Path, "/")
	l.log.Debug("fetching definitions from s3", "bucket", bucket, "key", key)

	obj, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "get s3 object %q", uri)
	}
	defer obj.Body.Close()

	return io.ReadAll(obj.Body)
}

// s3 lazily builds the shared S3 client. The loader is used from both the
// cycle goroutine and the reconciliation cron, so the init is guarded.
func (l *Loader) s3(ctx context.Context) (*s3.Client, error) {
	l.s3Mu.Lock()
	defer l.s3Mu.Unlock()
	if l.s3Client != nil {
		return l.s3Client, nil
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "load aws config")
	}
	l.s3Client = s3.NewFromConfig(cfg)
	return l.s3Client, nil
}
