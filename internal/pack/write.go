package pack

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"
	"sync"

	apperrors "github.com/conneroisu/assetpack/internal/errors"
	"github.com/spf13/afero"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// pathLocks serializes disk packs of the same output path within the process.
var pathLocks sync.Map

func lockPath(path string) func() {
	v, _ := pathLocks.LoadOrStore(filepath.Clean(path), &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// writeAtomic replaces path with data by writing a temporary file in the same
// directory and renaming it into place.
func writeAtomic(fs afero.Fs, path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return apperrors.ErrWriteFailed(dir, err)
	}

	tmp, err := afero.TempFile(fs, dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return apperrors.ErrWriteFailed(path, err)
	}
	tmpName := tmp.Name()

	cleanup := func(cause error) error {
		_ = tmp.Close()
		_ = fs.Remove(tmpName)
		return apperrors.ErrWriteFailed(path, cause)
	}

	if _, err := tmp.Write(data); err != nil {
		return cleanup(err)
	}
	if err := tmp.Sync(); err != nil {
		return cleanup(err)
	}
	if err := tmp.Close(); err != nil {
		_ = fs.Remove(tmpName)
		return apperrors.ErrWriteFailed(path, err)
	}
	if err := fs.Chmod(tmpName, 0o644); err != nil {
		_ = fs.Remove(tmpName)
		return apperrors.ErrWriteFailed(path, err)
	}
	if err := fs.Rename(tmpName, path); err != nil {
		_ = fs.Remove(tmpName)
		return apperrors.ErrWriteFailed(path, err)
	}
	return nil
}

// newEncoder returns the encoder for charset, or nil for UTF-8 where text is
// written unchanged.
func newEncoder(charset string) (*encoding.Encoder, error) {
	if charset == "" || strings.EqualFold(charset, "utf-8") {
		return nil, nil
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, apperrors.ErrEncoding(charset, err)
	}
	return enc.NewEncoder(), nil
}

func encodeBytes(enc *encoding.Encoder, data []byte) ([]byte, error) {
	if enc == nil {
		return data, nil
	}
	return enc.Bytes(data)
}

// encodingWriter wraps w so text written to it is encoded. The returned
// function flushes the encoder and must be called once writing is done.
func encodingWriter(w io.Writer, enc *encoding.Encoder) (io.Writer, func() error) {
	if enc == nil {
		return w, func() error { return nil }
	}
	tw := transform.NewWriter(w, enc)
	return tw, tw.Close
}

var bufferPool = sync.Pool{
	New: func() interface{} {
		return bytes.NewBuffer(make([]byte, 0, 16*1024))
	},
}

// maxPooledBuffer keeps unusually large assets from pinning memory in the pool.
const maxPooledBuffer = 4 << 20

func getBuffer() *bytes.Buffer {
	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

func putBuffer(buf *bytes.Buffer) {
	if buf == nil || buf.Cap() > maxPooledBuffer {
		return
	}
	bufferPool.Put(buf)
}
