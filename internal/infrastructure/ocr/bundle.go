// Package ocr holds engine-independent OCR helpers.
package ocr

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kirillkom/docsort/internal/core/domain"
)

// VerifyModelBundle checks that <dir>/<lang>.traineddata exists and is not
// empty for every language in a "+"-joined list such as "eng+deu".
func VerifyModelBundle(dir, languages string) error {
	if strings.TrimSpace(dir) == "" {
		return domain.WrapError(domain.ErrModelAssetMissing, "verify model bundle", fmt.Errorf("tessdata directory is not configured"))
	}
	langs := strings.Split(languages, "+")
	for _, lang := range langs {
		lang = strings.TrimSpace(lang)
		if lang == "" {
			return domain.WrapError(domain.ErrModelAssetMissing, "verify model bundle", fmt.Errorf("empty language in %q", languages))
		}
		path := filepath.Join(dir, lang+".traineddata")
		info, err := os.Stat(path)
		if err != nil {
			return domain.WrapError(domain.ErrModelAssetMissing, "verify model bundle", err)
		}
		if info.IsDir() || info.Size() == 0 {
			return domain.WrapError(domain.ErrModelAssetMissing, "verify model bundle", fmt.Errorf("%s is empty", path))
		}
	}
	return nil
}
