package presenter

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func newTestPresenter() (*Presenter, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return NewWithOptions(&out, &errOut, ColorNever), &out, &errOut
}

func TestPresenterOutput(t *testing.T) {
	p, out, errOut := newTestPresenter()

	p.Success("done")
	p.Info("fyi")
	p.Warning("careful")
	p.Error(errors.New("boom"), "launching")
	p.Section("Details")

	assert.Contains(t, out.String(), "done")
	assert.Contains(t, out.String(), "fyi")
	assert.Contains(t, out.String(), "Details")
	assert.Contains(t, errOut.String(), "[WARN] careful")
	assert.Contains(t, errOut.String(), "[ERROR] launching: boom")
}

func TestPresenterQuietSuppressesAllButErrors(t *testing.T) {
	p, out, errOut := newTestPresenter()
	p.SetQuiet(true)

	p.Success("done")
	p.Info("fyi")
	p.Warning("careful")
	p.Section("Details")
	p.Error(errors.New("boom"), "")

	assert.Empty(t, out.String())
	assert.Contains(t, errOut.String(), "[ERROR] boom")
	assert.NotContains(t, errOut.String(), "careful")
}

func TestPresenterNilError(t *testing.T) {
	p, _, errOut := newTestPresenter()
	p.Error(nil, "context")
	assert.Empty(t, errOut.String())
}
