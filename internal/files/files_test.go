package files

import (
	"archive/zip"
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeImage(t *testing.T, path string, width, height int) {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}

	var buf bytes.Buffer
	switch filepath.Ext(path) {
	case ".png":
		require.NoError(t, png.Encode(&buf, img))
	default:
		require.NoError(t, jpeg.Encode(&buf, img, nil))
	}

	require.NoError(t, os.MkdirAll(filepath.Dir(path), os.ModePerm))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

// writeInterlacedPNG writes a 1x1 Adam7 interlaced RGB image. Only the first
// pass holds a pixel at that size.
func writeInterlacedPNG(t *testing.T, path string) {
	t.Helper()

	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")

	chunk := func(typ string, data []byte) {
		_ = binary.Write(&buf, binary.BigEndian, uint32(len(data)))
		buf.WriteString(typ)
		buf.Write(data)
		_ = binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(append([]byte(typ), data...)))
	}

	// width, height, bit depth, color type, compression, filter, interlace
	ihdr := []byte{0, 0, 0, 1, 0, 0, 0, 1, 8, 2, 0, 0, 1}
	chunk("IHDR", ihdr)

	var raw bytes.Buffer
	zw := zlib.NewWriter(&raw)
	_, err := zw.Write([]byte{0, 200, 30, 30})
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	chunk("IDAT", raw.Bytes())
	chunk("IEND", nil)

	require.NoError(t, os.MkdirAll(filepath.Dir(path), os.ModePerm))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func chapterDir(t *testing.T) string {
	t.Helper()

	dir := filepath.Join(t.TempDir(), "temp", "Comic_chapter_1")
	writeImage(t, filepath.Join(dir, "001.jpg"), 40, 120)
	writeImage(t, filepath.Join(dir, "002.png"), 120, 40)
	writeImage(t, filepath.Join(dir, "003.jpg"), 30, 30)

	return dir
}

func TestCreatePDF(t *testing.T) {
	dir := chapterDir(t)
	out := filepath.Join(t.TempDir(), "output", "Comic_chapter_1.pdf")

	pages, err := CreatePDF(dir, out, "letter")
	require.NoError(t, err)
	assert.Equal(t, 3, pages)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
	assert.Equal(t, 3, strings.Count(string(data), "/Type /Page\n"))

	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err), "temp dir should be removed")
}

func TestCreatePDF_InterlacedPNG(t *testing.T) {
	dir := chapterDir(t)
	writeInterlacedPNG(t, filepath.Join(dir, "004.png"))

	data, err := os.ReadFile(filepath.Join(dir, "004.png"))
	require.NoError(t, err)
	assert.True(t, interlacedPNG(data))
	_, err = png.Decode(bytes.NewReader(data))
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "Comic_chapter_1.pdf")

	pages, err := CreatePDF(dir, out, "letter")
	require.NoError(t, err)
	assert.Equal(t, 4, pages)
	assert.True(t, Exists(out))
}

func TestCreatePDF_BadImageCleansUp(t *testing.T) {
	dir := chapterDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "004.jpg"), []byte("not a jpeg"), 0o644))
	out := filepath.Join(t.TempDir(), "Comic_chapter_1.pdf")

	_, err := CreatePDF(dir, out, "a4")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "004.jpg")

	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err), "temp dir should be removed on failure too")
	assert.False(t, Exists(out))
}

func TestCreatePDF_EmptyDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "empty")
	require.NoError(t, os.MkdirAll(dir, os.ModePerm))

	_, err := CreatePDF(dir, filepath.Join(t.TempDir(), "x.pdf"), "letter")
	assert.ErrorIs(t, err, ErrNoImages)

	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}

func TestCreateCbzArchive(t *testing.T) {
	dir := chapterDir(t)
	out := filepath.Join(t.TempDir(), "Comic_chapter_1.cbz")

	pages, err := CreateCbzArchive(dir, out)
	require.NoError(t, err)
	assert.Equal(t, 3, pages)

	r, err := zip.OpenReader(out)
	require.NoError(t, err)
	defer r.Close()

	var names []string
	for _, f := range r.File {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"001.jpg", "002.png", "003.jpg"}, names)

	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}

func TestSortedImages(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"010.jpg", "002.jpg", "001.png", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.jpg"), os.ModePerm))

	images, err := SortedImages(dir)
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(dir, "001.png"),
		filepath.Join(dir, "002.jpg"),
		filepath.Join(dir, "010.jpg"),
	}, images)
}

func TestFit(t *testing.T) {
	// tall image: height bound
	x, y, w, h := Fit(612, 792, 100, 400)
	assert.InDelta(t, 198, w, 0.001)
	assert.InDelta(t, 792, h, 0.001)
	assert.InDelta(t, 207, x, 0.001)
	assert.InDelta(t, 0, y, 0.001)

	// wide image: width bound
	x, y, w, h = Fit(612, 792, 1224, 612)
	assert.InDelta(t, 612, w, 0.001)
	assert.InDelta(t, 306, h, 0.001)
	assert.InDelta(t, 0, x, 0.001)
	assert.InDelta(t, 243, y, 0.001)
}
