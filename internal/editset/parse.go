package editset

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/sevigo/cbng-reviewer/internal/core"
)

var (
	// ErrMalformedDocument is returned when the input is not well-formed XML.
	// Parsing of that stream cannot continue.
	ErrMalformedDocument = errors.New("malformed edit set document")
	// ErrMalformedEdit marks a single WPEdit element that could not be
	// converted. The parser logs and skips such elements.
	ErrMalformedEdit = errors.New("malformed edit")
)

var (
	ignoredTopLevel = map[string]struct{}{"WPEditSet": {}}
	editFields      = map[string]struct{}{
		"comment": {}, "user": {}, "user_edit_count": {}, "user_distinct_pages": {},
		"user_warns": {}, "prev_user": {}, "user_reg_time": {}, "page_made_time": {},
		"title": {}, "namespace": {}, "creator": {}, "num_recent_edits": {},
		"num_recent_reversions": {},
	}
	mappedFields = map[string]string{
		"EditID":      "edit_id",
		"isVandalism": "is_vandalism",
	}
	revisionFields = map[string]struct{}{"minor": {}, "timestamp": {}, "text": {}}
	reviewFields   = map[string]struct{}{"reviewers": {}, "reviewers_agreeing": {}}
)

// rawEdit collects field text while scanning one WPEdit. A nil value means the
// element was present but empty.
type rawEdit struct {
	fields   map[string]*string
	current  map[string]*string
	previous map[string]*string
	source   *string
}

func newRawEdit() *rawEdit {
	return &rawEdit{
		fields:   map[string]*string{},
		current:  map[string]*string{},
		previous: map[string]*string{},
	}
}

// Parser reads CandidateRecords from a WPEditSet (or a bare WPEdit) stream
// one element at a time.
type Parser struct {
	dec    *xml.Decoder
	logger *slog.Logger

	pending xml.Token
	text    strings.Builder

	edit              *rawEdit
	inEdit            bool
	inCurrent         bool
	inPrevious        bool
	inEditDB          bool
	inReviewInterface bool
}

// NewParser creates a streaming parser over r.
func NewParser(r io.Reader, logger *slog.Logger) *Parser {
	return &Parser{
		dec:    xml.NewDecoder(r),
		logger: logger,
	}
}

// Next returns the next well-formed edit. It returns io.EOF at the end of the
// stream and an error wrapping ErrMalformedDocument if the XML itself is
// broken. Individual malformed edits are logged and skipped.
func (p *Parser) Next() (*core.CandidateRecord, error) {
	for {
		tok, err := p.token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, io.EOF
			}
			return nil, fmt.Errorf("%w: %w", ErrMalformedDocument, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if err := p.start(t.Name.Local); err != nil {
				return nil, err
			}
		case xml.CharData:
			p.text.Write(t)
		case xml.EndElement:
			raw := p.end(t.Name.Local)
			if raw == nil {
				continue
			}
			record, err := raw.toCandidate()
			if err != nil {
				p.logger.Warn("skipping malformed edit", "error", err)
				continue
			}
			return record, nil
		}
	}
}

func (p *Parser) token() (xml.Token, error) {
	if p.pending != nil {
		tok := p.pending
		p.pending = nil
		return tok, nil
	}
	tok, err := p.dec.Token()
	if err != nil {
		return nil, err
	}
	return xml.CopyToken(tok), nil
}

func (p *Parser) start(name string) error {
	p.text.Reset()

	if name == "WPEdit" {
		p.resetEdit()
		return nil
	}
	if !p.inEdit {
		if _, ok := ignoredTopLevel[name]; !ok {
			p.logger.Warn("ignoring element outside of an edit", "element", name)
		}
		return nil
	}

	switch name {
	case "current":
		p.inCurrent = true
	case "previous":
		p.inPrevious = true
	case "EditDB":
		p.inEditDB = true
	case "ReviewInterface":
		p.inReviewInterface = true
	case "source":
		// The source is taken from the opening tag, so only the text up to the
		// first nested token is seen.
		if p.inEditDB && !p.inCurrent && !p.inPrevious {
			return p.captureSource()
		}
	}
	return nil
}

func (p *Parser) captureSource() error {
	tok, err := p.dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: %w", ErrMalformedDocument, io.ErrUnexpectedEOF)
		}
		return fmt.Errorf("%w: %w", ErrMalformedDocument, err)
	}
	tok = xml.CopyToken(tok)
	if data, ok := tok.(xml.CharData); ok {
		p.edit.source = textPtr(string(data))
		return nil
	}
	p.pending = tok
	return nil
}

// end handles a closing tag and returns the completed edit when it closes a WPEdit.
func (p *Parser) end(name string) *rawEdit {
	text := textPtr(p.text.String())
	p.text.Reset()

	if name == "WPEdit" {
		if !p.inEdit {
			return nil
		}
		raw := p.edit
		p.inEdit = false
		p.edit = nil
		return raw
	}
	if !p.inEdit {
		return nil
	}

	switch name {
	case "current":
		p.inCurrent = false
		return nil
	case "previous":
		p.inPrevious = false
		return nil
	case "EditDB":
		p.inEditDB = false
		return nil
	case "ReviewInterface":
		p.inReviewInterface = false
		return nil
	}

	switch {
	case p.inCurrent:
		if _, ok := revisionFields[name]; ok {
			p.edit.current[name] = text
		}
	case p.inPrevious:
		if _, ok := revisionFields[name]; ok {
			p.edit.previous[name] = text
		}
	case p.inEditDB:
		// source was captured on the opening tag
	case p.inReviewInterface:
		if _, ok := reviewFields[name]; ok {
			p.edit.fields[name] = text
		}
	default:
		if _, ok := editFields[name]; ok {
			p.edit.fields[name] = text
		} else if mapped, ok := mappedFields[name]; ok {
			p.edit.fields[mapped] = text
		}
	}
	return nil
}

func (p *Parser) resetEdit() {
	p.edit = newRawEdit()
	p.inEdit = true
	p.inCurrent = false
	p.inPrevious = false
	p.inEditDB = false
	p.inReviewInterface = false
}

// Parse calls fn for every edit in r. It stops at the first error returned by
// fn or at a document level parse failure.
func Parse(r io.Reader, logger *slog.Logger, fn func(*core.CandidateRecord) error) error {
	p := NewParser(r, logger)
	for {
		record, err := p.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(record); err != nil {
			return err
		}
	}
}

func textPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (raw *rawEdit) toCandidate() (*core.CandidateRecord, error) {
	idText := raw.fields["edit_id"]
	if idText == nil {
		return nil, fmt.Errorf("%w: missing EditID", ErrMalformedEdit)
	}
	editID, err := strconv.ParseInt(strings.TrimSpace(*idText), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid EditID %q", ErrMalformedEdit, *idText)
	}

	record := &core.CandidateRecord{EditID: editID}
	conv := &converter{editID: editID}

	record.Title = deref(raw.fields["title"])
	record.Comment = deref(raw.fields["comment"])
	record.User = deref(raw.fields["user"])
	record.Creator = deref(raw.fields["creator"])
	record.PrevUser = raw.fields["prev_user"]
	record.UserEditCount = conv.intField(raw.fields, "user_edit_count")
	record.UserDistinctPages = conv.intField(raw.fields, "user_distinct_pages")
	record.UserWarns = conv.intField(raw.fields, "user_warns")
	record.UserRegTime = conv.int64Field(raw.fields, "user_reg_time")
	record.PageMadeTime = conv.int64Field(raw.fields, "page_made_time")
	record.NumRecentEdits = conv.intField(raw.fields, "num_recent_edits")
	record.NumRecentReversions = conv.intField(raw.fields, "num_recent_reversions")
	record.Reviewers = conv.intField(raw.fields, "reviewers")
	record.ReviewersAgreeing = conv.intField(raw.fields, "reviewers_agreeing")
	record.Current = conv.revision(raw.current)
	record.Previous = conv.revision(raw.previous)

	if text, ok := raw.fields["is_vandalism"]; ok {
		isVandalism := text != nil && strings.TrimSpace(*text) == "true"
		record.IsVandalism = &isVandalism
	}

	namespace := strings.TrimSpace(deref(raw.fields["namespace"]))
	if namespace == "" {
		namespace = "main"
	}
	if id, ok := core.NamespaceID(namespace); ok {
		record.Namespace = id
	} else {
		conv.fail("namespace", namespace)
	}

	if raw.source != nil {
		record.EditDBSource = *raw.source
	}
	if record.Current != nil {
		record.Current.IsCreation = record.Previous == nil
	}

	if conv.err != nil {
		return nil, conv.err
	}
	return record, nil
}

// converter parses numeric fields and keeps the first failure.
type converter struct {
	editID int64
	err    error
}

func (c *converter) fail(field, value string) {
	if c.err == nil {
		c.err = fmt.Errorf("%w: edit %d has invalid %s %q", ErrMalformedEdit, c.editID, field, value)
	}
}

func (c *converter) intField(fields map[string]*string, name string) *int {
	text := fields[name]
	if text == nil {
		return nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(*text))
	if err != nil {
		c.fail(name, *text)
		return nil
	}
	return &v
}

func (c *converter) int64Field(fields map[string]*string, name string) *int64 {
	text := fields[name]
	if text == nil {
		return nil
	}
	v, err := strconv.ParseInt(strings.TrimSpace(*text), 10, 64)
	if err != nil {
		c.fail(name, *text)
		return nil
	}
	return &v
}

func (c *converter) revision(fields map[string]*string) *core.Revision {
	if len(fields) == 0 {
		return nil
	}
	rev := &core.Revision{
		EditID:    c.editID,
		IsMinor:   deref(fields["minor"]) == "true",
		Timestamp: c.int64Field(fields, "timestamp"),
		Text:      fields["text"],
	}
	return rev
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
