package parser

import (
	"bytes"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var disableConfigDir sync.Once

// Validate checks the structure of a PDF in relaxed mode, the way most
// viewers tolerate minor format violations.
func Validate(data []byte, password string) error {
	disableConfigDir.Do(api.DisableConfigDir)

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	if password != "" {
		conf.UserPW = password
	}
	return api.Validate(bytes.NewReader(data), conf)
}
