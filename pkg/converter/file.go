package converter

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/dsnet/compress/bzip2"
	"go.uber.org/zap"

	"github.com/mshroyer/coursepointer/pkg/util"
)

// ConvertFile converts the GPX file at inputPath into a FIT course file at
// outputPath. Inputs with a .bz2 suffix are decompressed transparently.
// Unless opts.Force is set, an existing output file is an error rather than
// being overwritten.
func (cv *Converter) ConvertFile(inputPath, outputPath string, opts Options) (*ConversionInfo, error) {
	in, err := os.Open(inputPath)
	if err != nil {
		return nil, util.WrapErrorf(err, util.ErrReadingInput, "opening %s", inputPath)
	}
	defer in.Close()

	var r io.Reader = in
	if strings.HasSuffix(inputPath, ".bz2") {
		bz, err := bzip2.NewReader(in, nil)
		if err != nil {
			return nil, util.WrapErrorf(err, util.ErrReadingInput, "opening bzip2 stream")
		}
		defer bz.Close()
		r = bz
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_EXCL
	if opts.Force {
		flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}
	out, err := os.OpenFile(outputPath, flags, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil, util.WrapErrorf(err, util.ErrOutputExists, "%s", outputPath)
		}
		return nil, util.WrapErrorf(err, util.ErrWritingOutput, "creating %s", outputPath)
	}
	defer out.Close()

	w := bufio.NewWriter(out)
	info, err := cv.Convert(r, w, opts)
	if err != nil {
		// A failed conversion can leave a partial file behind, which is not
		// a valid course file.
		cv.logger.Warn("conversion failed, output may be incomplete",
			zap.String("output", outputPath), zap.Error(err))
		return nil, err
	}
	if err := w.Flush(); err != nil {
		return nil, util.WrapErrorf(err, util.ErrWritingOutput, "flushing %s", outputPath)
	}
	if err := out.Close(); err != nil {
		return nil, util.WrapErrorf(err, util.ErrWritingOutput, "closing %s", outputPath)
	}
	return info, nil
}
