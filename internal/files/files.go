package files

import (
	"archive/zip"
	"bufio"
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"  // needed to decode gif
	_ "image/jpeg" // needed to decode jpeg
	_ "image/png"  // needed to decode png
	"io"
	"os"
	"path/filepath"
	"slices"

	"comicdl/internal/utils"

	"github.com/disintegration/imaging"
	"github.com/go-pdf/fpdf"
	"github.com/pkg/errors"
	_ "golang.org/x/image/webp" // needed to decode webp
)

// ErrNoImages is returned when the source directory holds no images.
var ErrNoImages = errors.New("no images to compile")

func IsValidLocation(location string) error {
	if _, err := os.Stat(location); err != nil {
		return err
	}

	return nil
}

// Exists reports whether a regular file exists at path.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// SortedImages returns the image files in dir ordered lexically by name.
func SortedImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() || !utils.IsImagePath(entry.Name()) {
			continue
		}
		names = append(names, entry.Name())
	}
	slices.Sort(names)

	paths := make([]string, 0, len(names))
	for _, name := range names {
		paths = append(paths, filepath.Join(dir, name))
	}

	return paths, nil
}

// Fit scales an image of imgWidth x imgHeight to fit a page without
// distortion and returns the position and size that center it.
func Fit(pageWidth, pageHeight, imgWidth, imgHeight float64) (x, y, w, h float64) {
	scale := min(pageWidth/imgWidth, pageHeight/imgHeight)

	w = imgWidth * scale
	h = imgHeight * scale
	x = (pageWidth - w) / 2
	y = (pageHeight - h) / 2

	return x, y, w, h
}

// CreatePDF creates a pdf file named pdfPath with one page per image in
// sourceDir, in file name order. sourceDir is removed when CreatePDF returns,
// whether it succeeded or not; a partially written pdfPath is removed on failure.
func CreatePDF(sourceDir, pdfPath, pageSize string) (pages int, err error) {
	defer os.RemoveAll(sourceDir)

	images, err := SortedImages(sourceDir)
	if err != nil {
		return 0, err
	}
	if len(images) == 0 {
		return 0, ErrNoImages
	}

	if err := os.MkdirAll(filepath.Dir(pdfPath), os.ModePerm); err != nil {
		return 0, err
	}

	pdf := fpdf.New(fpdf.OrientationPortrait, fpdf.UnitPoint, pageSize, "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreator("comicdl", true)

	pageWidth, pageHeight := pdf.GetPageSize()

	for _, path := range images {
		data, imageType, cfg, err := pdfImage(path)
		if err != nil {
			return 0, errors.Wrapf(err, "could not read image %s", filepath.Base(path))
		}

		opts := fpdf.ImageOptions{ImageType: imageType}
		pdf.RegisterImageOptionsReader(path, opts, bytes.NewReader(data))
		if !pdf.Ok() {
			return 0, errors.Wrapf(pdf.Error(), "could not add image %s", filepath.Base(path))
		}

		x, y, w, h := Fit(pageWidth, pageHeight, float64(cfg.Width), float64(cfg.Height))

		pdf.AddPage()
		pdf.ImageOptions(path, x, y, w, h, false, opts, 0, "")
	}

	pages = pdf.PageCount()

	if err := pdf.OutputFileAndClose(pdfPath); err != nil {
		_ = os.Remove(pdfPath)
		return 0, errors.Wrapf(err, "could not write %s", pdfPath)
	}

	return pages, nil
}

// pdfImage reads an image and converts it into a form the pdf writer can
// embed. WebP and 16 bit PNG images are re-encoded.
func pdfImage(path string) ([]byte, string, image.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", image.Config{}, err
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", image.Config{}, err
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return nil, "", image.Config{}, fmt.Errorf("image has no pixels: %dx%d", cfg.Width, cfg.Height)
	}

	switch format {
	case "jpeg":
		return data, "JPG", cfg, nil

	case "gif":
		return data, "GIF", cfg, nil

	case "png":
		switch cfg.ColorModel {
		case color.RGBA64Model, color.NRGBA64Model, color.Gray16Model:
			data, err = reencode(data, imaging.PNG)
			return data, "PNG", cfg, err
		}
		// the png encoder never interlaces
		if interlacedPNG(data) {
			data, err = reencode(data, imaging.PNG)
			return data, "PNG", cfg, err
		}
		return data, "PNG", cfg, nil

	case "webp":
		data, err = reencode(data, imaging.JPEG)
		return data, "JPG", cfg, err
	}

	return nil, "", image.Config{}, fmt.Errorf("unsupported image format: %s", format)
}

// interlacedPNG reads the interlace method from the IHDR chunk, which always
// comes first.
func interlacedPNG(data []byte) bool {
	const interlaceOffset = 28
	return len(data) > interlaceOffset && string(data[12:16]) == "IHDR" && data[interlaceOffset] != 0
}

func reencode(data []byte, format imaging.Format) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, imaging.Clone(img), format, imaging.JPEGQuality(92)); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// CreateCbzArchive creates a zip archive named cbzPath holding the images of
// sourceDir in file name order. It follows the same cleanup rules as CreatePDF.
func CreateCbzArchive(sourceDir, cbzPath string) (pages int, err error) {
	defer os.RemoveAll(sourceDir)

	images, err := SortedImages(sourceDir)
	if err != nil {
		return 0, err
	}
	if len(images) == 0 {
		return 0, ErrNoImages
	}

	if err := os.MkdirAll(filepath.Dir(cbzPath), os.ModePerm); err != nil {
		return 0, err
	}

	cbzFile, err := os.Create(cbzPath)
	if err != nil {
		return 0, err
	}

	defer func() {
		if err != nil {
			_ = os.Remove(cbzPath)
		}
	}()

	writeBuf := bufio.NewWriter(cbzFile)
	zipWriter := zip.NewWriter(writeBuf)

	for _, imgPath := range images {
		if err = addFileToZip(zipWriter, imgPath, filepath.Base(imgPath)); err != nil {
			cbzFile.Close()
			return 0, err
		}
	}

	if err = zipWriter.Close(); err == nil {
		err = writeBuf.Flush()
	}
	if closeErr := cbzFile.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return 0, errors.Wrapf(err, "could not write %s", cbzPath)
	}

	return len(images), nil
}

// addFileToZip adds a single file to the zip archive
func addFileToZip(zipWriter *zip.Writer, filePath, fileName string) error {
	fileToZip, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer fileToZip.Close()

	// images are already compressed
	writer, err := zipWriter.CreateHeader(&zip.FileHeader{
		Name:   fileName,
		Method: zip.Store,
	})
	if err != nil {
		return err
	}

	readerBuf := bufio.NewReader(fileToZip)

	_, err = io.Copy(writer, readerBuf)
	return err
}
