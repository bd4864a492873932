package intake_test

import (
	"path/filepath"
	"testing"

	"ocrdrop/internal/config"
	"ocrdrop/internal/errors"
	"ocrdrop/internal/intake"
	"ocrdrop/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultFilter() *intake.Filter {
	return intake.NewFilter(config.New().Intake.AcceptedTypes)
}

func TestDetect(t *testing.T) {
	dir := t.TempDir()
	samples := testutil.WriteSamples(t, dir)

	tests := []struct {
		name string
		want string
	}{
		{"scan.pdf", "application/pdf"},
		{"photo.png", "image/png"},
		{"photo.jpg", "image/jpeg"},
		{"anim.gif", "image/gif"},
		{"pic.webp", "image/webp"},
		{"notes.txt", "text/plain"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := intake.Detect(samples[tt.name])
			require.NoError(t, err)
			assert.Equal(t, tt.want, h.MIMEType)
			assert.Equal(t, tt.name, h.Name)
			assert.Greater(t, h.Size, int64(0))
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := intake.Detect(filepath.Join(dir, "gone.pdf"))
		require.Error(t, err)
		assert.True(t, errors.IsFileNotFound(err))
	})

	t.Run("directory", func(t *testing.T) {
		_, err := intake.Detect(dir)
		require.Error(t, err)
		assert.Equal(t, errors.InvalidPath, errors.KindOf(err))
	})
}

func TestFilterAccepts(t *testing.T) {
	f := defaultFilter()
	assert.True(t, f.Accepts("application/pdf"))
	assert.True(t, f.Accepts("image/jpg"))
	assert.True(t, f.Accepts("IMAGE/PNG"))
	assert.True(t, f.Accepts("image/webp; q=1"))
	assert.False(t, f.Accepts("text/plain; charset=utf-8"))
	assert.False(t, f.Accepts("image/svg+xml"))
	assert.False(t, f.Accepts(""))
}

func TestAcquireMixedBatch(t *testing.T) {
	dir := t.TempDir()
	samples := testutil.WriteSamples(t, dir)
	paths := []string{
		samples["scan.pdf"],
		samples["notes.txt"],
		samples["photo.png"],
		filepath.Join(dir, "missing.pdf"),
		samples["photo.jpg"],
		dir,
		samples["anim.gif"],
		samples["pic.webp"],
	}

	handles := defaultFilter().Acquire(paths)

	names := make([]string, 0, len(handles))
	for _, h := range handles {
		names = append(names, h.Name)
	}
	assert.Equal(t, []string{"scan.pdf", "photo.png", "photo.jpg", "anim.gif", "pic.webp"}, names,
		"accepted files keep input order, everything else is dropped")
}

func TestAcquireRespectsConfiguredTypes(t *testing.T) {
	samples := testutil.WriteSamples(t, t.TempDir())
	f := intake.NewFilter([]string{"application/pdf"})

	handles := f.Acquire([]string{samples["scan.pdf"], samples["photo.png"]})
	require.Len(t, handles, 1)
	assert.True(t, handles[0].IsPDF())
}

func TestKeep(t *testing.T) {
	samples := testutil.WriteSamples(t, t.TempDir())
	var all []string
	for _, p := range samples {
		all = append(all, p)
	}
	f := defaultFilter()
	handles := f.Acquire(all)
	assert.Len(t, f.Keep(handles), 5)
	assert.Empty(t, intake.NewFilter([]string{"image/gif"}).Keep(handles[:0]))
}

func TestExtensions(t *testing.T) {
	exts := defaultFilter().Extensions()
	for _, ext := range []string{".pdf", ".png", ".jpg", ".jpeg", ".gif", ".webp"} {
		assert.Contains(t, exts, ext)
	}
	assert.IsNonDecreasing(t, exts)
}

func TestDropZone(t *testing.T) {
	var got [][]string
	dz := intake.NewDropZone(func(paths []string) { got = append(got, paths) })

	assert.False(t, dz.Active())
	dz.Enter()
	assert.True(t, dz.Active())
	dz.Over()
	assert.True(t, dz.Active())
	dz.Leave()
	assert.False(t, dz.Active())

	dz.Enter()
	dz.Drop(nil)
	assert.False(t, dz.Active(), "drop clears the indicator even without files")
	assert.Empty(t, got)

	dz.Over()
	dz.Drop([]string{"/tmp/a.pdf", "/tmp/b.png"})
	assert.False(t, dz.Active())
	require.Len(t, got, 1)
	assert.Equal(t, []string{"/tmp/a.pdf", "/tmp/b.png"}, got[0])
}

func TestSplitDropped(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"single", "/tmp/a.pdf", []string{"/tmp/a.pdf"}},
		{"several", "/tmp/a.pdf /tmp/b.png", []string{"/tmp/a.pdf", "/tmp/b.png"}},
		{"escaped spaces", `/tmp/my\ scan.pdf /tmp/b.png`, []string{"/tmp/my scan.pdf", "/tmp/b.png"}},
		{"single quoted", `'/tmp/my scan.pdf' '/tmp/b.png'`, []string{"/tmp/my scan.pdf", "/tmp/b.png"}},
		{"double quoted", `"/tmp/it's.pdf"`, []string{"/tmp/it's.pdf"}},
		{"file uri", "file:///tmp/a.pdf\n", []string{"/tmp/a.pdf"}},
		{"blank", "   \n", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, intake.SplitDropped(tt.in))
		})
	}
}
