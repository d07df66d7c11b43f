package artifact

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/scystream/control-plane/internal/defaultconfig"
	"github.com/scystream/control-plane/internal/domain/graph"
	"github.com/scystream/control-plane/internal/ports"
)

func testDefaults() *defaultconfig.Provider {
	return defaultconfig.NewProvider(defaultconfig.Settings{})
}

type fakeGraphStore struct {
	ports.GraphStore
	blocks []ports.BlockView
}

func (f *fakeGraphStore) ProjectBlocks(ctx context.Context, projectID string) ([]ports.BlockView, error) {
	return f.blocks, nil
}

type fakeObjectStore struct {
	objects map[string][]ports.ObjectStoreObject
}

func (f *fakeObjectStore) ListObjects(ctx context.Context, creds ports.ObjectStoreCredentials, prefix string) ([]ports.ObjectStoreObject, error) {
	return f.objects[prefix], nil
}

func (f *fakeObjectStore) PresignGet(ctx context.Context, creds ports.ObjectStoreCredentials, key string, ttl time.Duration) (string, error) {
	return "https://" + creds.Host + "/" + creds.Bucket + "/" + key, nil
}

func scalar(s string) graph.ConfigValue { return graph.ConfigValue{Scalar: &s} }

func fileConfig(host, port, access, secret, bucket, path, name string) graph.Config {
	return graph.Config{
		"S3_HOST":       scalar(host),
		"S3_PORT":       scalar(port),
		"S3_ACCESS_KEY": scalar(access),
		"S3_SECRET_KEY": scalar(secret),
		"BUCKET_NAME":   scalar(bucket),
		"FILE_PATH":     scalar(path),
		"FILE_NAME":     scalar(name),
	}
}

func TestLocateFindsMatchingObjectAndRewritesHost(t *testing.T) {
	t.Parallel()

	store := &fakeGraphStore{blocks: []ports.BlockView{
		{
			Block: graph.Block{ID: "b-1"},
			Ports: []graph.Port{
				{ID: "p-1", DataType: graph.DataTypeFile, Config: fileConfig("minio-internal", "9000", "ak", "sk", "bucket", "out/", "result-abc123")},
			},
		},
	}}
	objects := &fakeObjectStore{objects: map[string][]ports.ObjectStoreObject{
		"out/": {{Key: "out/result-abc123.csv"}, {Key: "out/other.csv"}},
	}}

	loc := New(store, objects, testDefaults(), "minio-internal", "minio.example.com", 24*time.Hour)
	found, err := loc.Locate(context.Background(), "proj-1")
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, "out/result-abc123.csv", found[0].Key)
	require.Contains(t, found[0].URL, "minio.example.com")
}

func TestLocateResolvesNamespacedDescriptorKeysBySubstring(t *testing.T) {
	t.Parallel()

	namespaced := graph.Config{
		"INPUT1_S3_HOST":       scalar("minio-internal"),
		"INPUT1_S3_PORT":       scalar("9000"),
		"INPUT1_S3_ACCESS_KEY": scalar("ak"),
		"INPUT1_S3_SECRET_KEY": scalar("sk"),
		"INPUT1_BUCKET_NAME":   scalar("bucket"),
		"INPUT1_FILE_PATH":     scalar("out/"),
		"INPUT1_FILE_NAME":     scalar("result-abc123"),
	}

	store := &fakeGraphStore{blocks: []ports.BlockView{
		{
			Block: graph.Block{ID: "b-1"},
			Ports: []graph.Port{
				{ID: "p-1", DataType: graph.DataTypeFile, Config: namespaced},
			},
		},
	}}
	objects := &fakeObjectStore{objects: map[string][]ports.ObjectStoreObject{
		"out/": {{Key: "out/result-abc123.csv"}},
	}}

	loc := New(store, objects, testDefaults(), "minio-internal", "minio.example.com", 24*time.Hour)
	found, err := loc.Locate(context.Background(), "proj-1")
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, "out/result-abc123.csv", found[0].Key)
	require.Contains(t, found[0].URL, "minio.example.com")
}

func TestLocateSkipsPortsMissingRequiredKey(t *testing.T) {
	t.Parallel()

	cfg := fileConfig("h", "9000", "ak", "sk", "bucket", "out/", "name")
	delete(cfg, "FILE_NAME")

	store := &fakeGraphStore{blocks: []ports.BlockView{
		{Block: graph.Block{ID: "b-1"}, Ports: []graph.Port{{ID: "p-1", DataType: graph.DataTypeFile, Config: cfg}}},
	}}
	objects := &fakeObjectStore{}

	loc := New(store, objects, testDefaults(), "h", "ext", 24*time.Hour)
	found, err := loc.Locate(context.Background(), "proj-1")
	require.NoError(t, err)
	require.Empty(t, found)
}

func TestLocateSkipsNonFilePorts(t *testing.T) {
	t.Parallel()

	store := &fakeGraphStore{blocks: []ports.BlockView{
		{Block: graph.Block{ID: "b-1"}, Ports: []graph.Port{{ID: "p-1", DataType: graph.DataTypePGTable, Config: graph.Config{}}}},
	}}
	objects := &fakeObjectStore{}

	loc := New(store, objects, testDefaults(), "h", "ext", 24*time.Hour)
	found, err := loc.Locate(context.Background(), "proj-1")
	require.NoError(t, err)
	require.Empty(t, found)
}
