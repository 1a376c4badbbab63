package hashing

import (
	"bytes"
	"context"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/servais1983/autoforensic-collector/pkg/evidence"
)

// Well-known digests of the empty input.
const (
	emptyMD5    = "d41d8cd98f00b204e9800998ecf8427e"
	emptySHA1   = "da39a3ee5e6b4b0d3255bfef95601890afd80709"
	emptySHA256 = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	emptySHA512 = "cf83e1357eefb8bdf1542850d66d8007d620e4050b5715dc83f4a921d36ce9ce47d0d13c5d85f2b0ff8318d2877eec2f63b931bd47417a81a538327af927da3e"
)

func writeTempFile(t *testing.T, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "payload.bin")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("writing temp file: %v", err)
	}
	return path
}

func TestDigestFileEmptyFile(t *testing.T) {
	eng := NewEngine(nil, nil)
	path := writeTempFile(t, nil)

	result, err := eng.DigestFile(context.Background(), path)
	if err != nil {
		t.Fatalf("DigestFile() error = %v", err)
	}

	want := map[string]string{
		"md5":    emptyMD5,
		"sha1":   emptySHA1,
		"sha256": emptySHA256,
		"sha512": emptySHA512,
	}
	if !reflect.DeepEqual(result.Digests, want) {
		t.Errorf("DigestFile() digests = %v, want %v", result.Digests, want)
	}
	if result.BytesRead != 0 {
		t.Errorf("DigestFile() bytes read = %d, want 0", result.BytesRead)
	}
}

func TestDigestFileKnownContent(t *testing.T) {
	content := []byte("hello forensic world")

	md5Sum := md5.Sum(content)
	sha1Sum := sha1.Sum(content)
	sha256Sum := sha256.Sum256(content)
	sha512Sum := sha512.Sum512(content)

	eng := NewEngine(nil, nil)
	path := writeTempFile(t, content)

	result, err := eng.DigestFile(context.Background(), path)
	if err != nil {
		t.Fatalf("DigestFile() error = %v", err)
	}

	want := map[string]string{
		"md5":    hex.EncodeToString(md5Sum[:]),
		"sha1":   hex.EncodeToString(sha1Sum[:]),
		"sha256": hex.EncodeToString(sha256Sum[:]),
		"sha512": hex.EncodeToString(sha512Sum[:]),
	}
	if !reflect.DeepEqual(result.Digests, want) {
		t.Errorf("DigestFile() digests = %v, want %v", result.Digests, want)
	}
	if result.BytesRead != int64(len(content)) {
		t.Errorf("DigestFile() bytes read = %d, want %d", result.BytesRead, len(content))
	}
}

func TestDigestFileDeterministic(t *testing.T) {
	eng := NewEngine(nil, nil)
	path := writeTempFile(t, bytes.Repeat([]byte("evidence"), 10000))

	first, err := eng.DigestFile(context.Background(), path)
	if err != nil {
		t.Fatalf("first DigestFile() error = %v", err)
	}
	second, err := eng.DigestFile(context.Background(), path)
	if err != nil {
		t.Fatalf("second DigestFile() error = %v", err)
	}

	if !reflect.DeepEqual(first.Digests, second.Digests) {
		t.Errorf("DigestFile() not deterministic: %v then %v", first.Digests, second.Digests)
	}
}

func TestDigestFileSpansMultipleChunks(t *testing.T) {
	// Content larger than one read chunk exercises the streaming loop.
	content := bytes.Repeat([]byte{0xAB}, ChunkSize*2+137)
	sha256Sum := sha256.Sum256(content)

	eng := NewEngine(nil, nil)
	path := writeTempFile(t, content)

	result, err := eng.DigestFile(context.Background(), path, "sha256")
	if err != nil {
		t.Fatalf("DigestFile() error = %v", err)
	}
	if result.BytesRead != int64(len(content)) {
		t.Errorf("DigestFile() bytes read = %d, want %d", result.BytesRead, len(content))
	}
	if got := result.Digests["sha256"]; got != hex.EncodeToString(sha256Sum[:]) {
		t.Errorf("DigestFile() sha256 = %s, want %s", got, hex.EncodeToString(sha256Sum[:]))
	}
}

func TestDigestFileDropsUnsupportedAlgorithms(t *testing.T) {
	eng := NewEngine(nil, nil)
	path := writeTempFile(t, []byte("x"))

	result, err := eng.DigestFile(context.Background(), path, "sha256", "crc32", "whirlpool")
	if err != nil {
		t.Fatalf("DigestFile() error = %v", err)
	}
	if len(result.Digests) != 1 {
		t.Errorf("DigestFile() digest count = %d, want 1", len(result.Digests))
	}
	if _, ok := result.Digests["sha256"]; !ok {
		t.Errorf("DigestFile() missing sha256 digest after dropping unsupported names")
	}
}

func TestDigestFileAllAlgorithmsUnsupported(t *testing.T) {
	eng := NewEngine(nil, nil)
	path := writeTempFile(t, []byte("x"))

	_, err := eng.DigestFile(context.Background(), path, "crc32", "whirlpool")
	if err == nil {
		t.Fatalf("DigestFile() error = nil, want UnsupportedAlgorithmError")
	}
	var ua *evidence.UnsupportedAlgorithmError
	if !errors.As(err, &ua) {
		t.Errorf("DigestFile() error type = %T, want *evidence.UnsupportedAlgorithmError", err)
	}
}

func TestDigestFileMissingSource(t *testing.T) {
	eng := NewEngine(nil, nil)

	_, err := eng.DigestFile(context.Background(), filepath.Join(t.TempDir(), "missing.raw"))
	if err == nil {
		t.Fatalf("DigestFile() error = nil, want SourceUnreadableError")
	}
	var su *evidence.SourceUnreadableError
	if !errors.As(err, &su) {
		t.Fatalf("DigestFile() error type = %T, want *evidence.SourceUnreadableError", err)
	}
	if su.Op != "open" {
		t.Errorf("SourceUnreadableError.Op = %q, want %q", su.Op, "open")
	}
}

func TestDigestFileCancelledContext(t *testing.T) {
	eng := NewEngine(nil, nil)
	path := writeTempFile(t, bytes.Repeat([]byte("a"), ChunkSize*4))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := eng.DigestFile(ctx, path)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("DigestFile() error = %v, want context.Canceled", err)
	}
}

func TestDigestReader(t *testing.T) {
	content := []byte("in-memory evidence payload")
	sha256Sum := sha256.Sum256(content)

	eng := NewEngine(nil, nil)
	result, err := eng.DigestReader(context.Background(), bytes.NewReader(content), "sha256")
	if err != nil {
		t.Fatalf("DigestReader() error = %v", err)
	}
	if got := result.Digests["sha256"]; got != hex.EncodeToString(sha256Sum[:]) {
		t.Errorf("DigestReader() sha256 = %s, want %s", got, hex.EncodeToString(sha256Sum[:]))
	}
	if result.BytesRead != int64(len(content)) {
		t.Errorf("DigestReader() bytes read = %d, want %d", result.BytesRead, len(content))
	}
}

func TestVerifyFile(t *testing.T) {
	content := []byte("verify me")
	sha256Sum := sha256.Sum256(content)
	digest := hex.EncodeToString(sha256Sum[:])

	eng := NewEngine(nil, nil)
	path := writeTempFile(t, content)

	tests := []struct {
		name      string
		expected  string
		algorithm string
		want      bool
		wantErr   bool
	}{
		{name: "match", expected: digest, algorithm: "sha256", want: true},
		{name: "prefixed digest mismatch", expected: "0x" + digest, algorithm: "sha256", want: false},
		{name: "case-insensitive match", expected: string(bytes.ToUpper([]byte(digest))), algorithm: "sha256", want: true},
		{name: "mismatch", expected: "deadbeef", algorithm: "sha256", want: false},
		{name: "unsupported algorithm", expected: digest, algorithm: "crc32", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := eng.VerifyFile(context.Background(), path, tt.expected, tt.algorithm)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("VerifyFile() error = nil, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("VerifyFile() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("VerifyFile() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewEngineNormalizesDefaults(t *testing.T) {
	eng := NewEngine([]string{" SHA256 ", "sha256", "MD5"}, nil)

	want := []string{"sha256", "md5"}
	if got := eng.DefaultAlgorithms(); !reflect.DeepEqual(got, want) {
		t.Errorf("DefaultAlgorithms() = %v, want %v", got, want)
	}
}

func TestNewEngineEmptyDefaultsMeansAllSupported(t *testing.T) {
	eng := NewEngine(nil, nil)

	want := []string{"md5", "sha1", "sha256", "sha512"}
	if got := eng.DefaultAlgorithms(); !reflect.DeepEqual(got, want) {
		t.Errorf("DefaultAlgorithms() = %v, want %v", got, want)
	}
}

func TestSupported(t *testing.T) {
	tests := []struct {
		name string
		algo string
		want bool
	}{
		{name: "sha256", algo: "sha256", want: true},
		{name: "uppercase", algo: "SHA512", want: true},
		{name: "unknown", algo: "crc32", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Supported(tt.algo); got != tt.want {
				t.Errorf("Supported(%q) = %v, want %v", tt.algo, got, tt.want)
			}
		})
	}
}

func BenchmarkDigestFile(b *testing.B) {
	sizes := []struct {
		name string
		n    int
	}{
		{name: "64KB", n: 64 * 1024},
		{name: "1MB", n: 1024 * 1024},
		{name: "16MB", n: 16 * 1024 * 1024},
	}

	for _, size := range sizes {
		b.Run(size.name, func(b *testing.B) {
			dir := b.TempDir()
			path := filepath.Join(dir, "payload.bin")
			if err := os.WriteFile(path, bytes.Repeat([]byte("a"), size.n), 0o644); err != nil {
				b.Fatalf("writing payload: %v", err)
			}
			eng := NewEngine(nil, nil)
			b.ResetTimer()
			b.SetBytes(int64(size.n))

			for i := 0; i < b.N; i++ {
				if _, err := eng.DigestFile(context.Background(), path); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
