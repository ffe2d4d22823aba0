package agentdef

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"

	"github.com/kazz187/agentsync/internal/scope"
	"github.com/kazz187/agentsync/pkg/storage"
)

const hooksKey = "hooksRecommended"

// Loader turns candidates into Definitions. It only reads from storage.
type Loader struct{}

func NewLoader() *Loader {
	return &Loader{}
}

// Load reads one candidate. Failures are logged and returned as *LoadError
// with a nil Definition so batch callers can record them and move on.
func (l *Loader) Load(ctx context.Context, loc scope.Location, c Candidate) (*Definition, error) {
	var (
		def  *Definition
		lerr *LoadError
	)
	if err := ValidateIdentifier(c.Identifier); err != nil {
		lerr = loadError(KindInvalidIdentifier, c.Path, err)
	} else if c.Layout == LayoutDirectory {
		def, lerr = l.loadDirectory(ctx, loc, c)
	} else {
		def, lerr = l.loadFile(ctx, loc, c)
	}
	if lerr != nil {
		slog.WarnContext(ctx, "skipping agent definition",
			"scope", loc.Scope.String(), "agent", c.Identifier, "path", c.Path,
			"kind", lerr.Kind.String(), "error", lerr.Err)
		return nil, lerr
	}

	if name := def.Header.Name(); name != "" && name != def.Identifier {
		slog.WarnContext(ctx, "header name differs from identifier, using identifier",
			"scope", loc.Scope.String(), "agent", def.Identifier, "name", name)
	}
	return def, nil
}

func (l *Loader) loadFile(ctx context.Context, loc scope.Location, c Candidate) (*Definition, *LoadError) {
	data, lerr := read(ctx, loc, c.Path)
	if lerr != nil {
		return nil, lerr
	}
	doc, err := ParseDocument(string(data))
	if err != nil {
		return nil, loadError(KindHeaderParse, c.Path, err)
	}
	return &Definition{
		Identifier: c.Identifier,
		Header:     doc.Header,
		Body:       doc.Body,
		RawText:    string(data),
		Layout:     LayoutSingleFile,
		Scope:      loc.Scope,
		SourcePath: c.Path,
		ParseMode:  doc.Mode,
	}, nil
}

func (l *Loader) loadDirectory(ctx context.Context, loc scope.Location, c Candidate) (*Definition, *LoadError) {
	metaPath := path.Join(c.Path, scope.MetadataFile)
	data, lerr := read(ctx, loc, metaPath)
	if lerr != nil {
		return nil, lerr
	}
	metadata, err := decodeMetadata(data)
	if err != nil {
		return nil, loadError(KindMalformedMetadata, metaPath, err)
	}

	bodyPath := path.Join(c.Path, scope.BodyFile)
	data, lerr = read(ctx, loc, bodyPath)
	if lerr != nil {
		return nil, lerr
	}
	text := string(data)
	mode := ModeStrict
	header := metadata
	body := string(bytes.TrimSpace(data))
	if _, _, ok := ExtractHeader(text); ok {
		doc, err := ParseDocument(text)
		if err != nil {
			return nil, loadError(KindHeaderParse, bodyPath, err)
		}
		header = merge(doc.Header, metadata)
		body = doc.Body
		mode = doc.Mode
	}

	hooksPath := path.Join(c.Path, scope.HooksFile)
	if isEmpty(header[hooksKey]) {
		raw, err := loc.Store.Read(ctx, hooksPath)
		switch {
		case err == nil:
			hooks, err := parseHooks(ctx, hooksPath, raw)
			if err != nil {
				slog.WarnContext(ctx, "ignoring hooks sidecar", "path", hooksPath, "error", err)
			} else if len(hooks) > 0 {
				header[hooksKey] = hooks
			}
		case !errors.Is(err, storage.ErrNotFound):
			slog.WarnContext(ctx, "ignoring unreadable hooks sidecar", "path", hooksPath, "error", err)
		}
	}

	if len(header) == 0 {
		return nil, loadError(KindMalformedMetadata, metaPath, fmt.Errorf("metadata has no fields"))
	}
	rawText, err := Render(header, body)
	if err != nil {
		return nil, loadError(KindMalformedMetadata, metaPath, err)
	}
	return &Definition{
		Identifier: c.Identifier,
		Header:     header,
		Body:       body,
		RawText:    rawText,
		Layout:     LayoutDirectory,
		Scope:      loc.Scope,
		SourcePath: c.Path,
		ParseMode:  mode,
	}, nil
}

func read(ctx context.Context, loc scope.Location, p string) ([]byte, *LoadError) {
	data, err := loc.Store.Read(ctx, p)
	if err == nil {
		return data, nil
	}
	if errors.Is(err, storage.ErrNotFound) {
		return nil, loadError(KindMissingFile, p, err)
	}
	return nil, loadError(KindUnreadable, p, err)
}

// decodeMetadata strictly decodes a JSON object, keeping numbers exact.
func decodeMetadata(data []byte) (Header, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("metadata must be a JSON object")
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unexpected data after metadata object")
	}
	return normalizeHeader(m), nil
}

// merge combines a document header with sidecar metadata. Header values
// win unless they are empty.
func merge(header, sidecar Header) Header {
	out := make(Header, len(header)+len(sidecar))
	for k, v := range sidecar {
		out[k] = v
	}
	for k, v := range header {
		if _, ok := out[k]; ok && isEmpty(v) {
			continue
		}
		out[k] = v
	}
	return out
}
