package migrations

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"text/template"
)

// templateData is what the SQL files may reference, e.g. {{.Prefix}}attribute
type templateData struct {
	Prefix string
}

// renderFS serves the embedded SQL files executed as text/templates.
// Directories are passed through so iofs can list them.
type renderFS struct {
	base fs.FS
	data templateData
}

func (r renderFS) Open(name string) (fs.File, error) {
	f, err := r.base.Open(name)
	if err != nil {
		return nil, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.IsDir() {
		return f, nil
	}
	defer f.Close()

	raw, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	tmpl, err := template.New(name).Option("missingkey=error").Parse(string(raw))
	if err != nil {
		return nil, fmt.Errorf("error parsing migration %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, r.data); err != nil {
		return nil, fmt.Errorf("error rendering migration %s: %w", name, err)
	}
	return &renderedFile{Reader: bytes.NewReader(buf.Bytes()), info: info}, nil
}

type renderedFile struct {
	*bytes.Reader
	info fs.FileInfo
}

func (f *renderedFile) Stat() (fs.FileInfo, error) {
	return f.info, nil
}

func (f *renderedFile) Close() error {
	return nil
}
