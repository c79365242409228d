package gateway

import (
	"encoding/base64"
	"encoding/xml"
	"strings"
)

// Match is one (KG, EZ) hit from an address search, in upstream return order.
// The upstream ranks by relevance, so position matters to callers.
type Match struct {
	RegistryArea     string
	RegistryAreaName string
	FolioNumber      string
}

// Registry response tag names. The gateway decodes the registry's SOAP body
// into this XML dialect.
const (
	tagResult       = "Ergebnis"
	tagAreaNumber   = "Katastralgemeindenummer"
	tagAreaName     = "Katastralgemeindebezeichnung"
	tagFolioNumber  = "Einlagezahl"
	tagDocumentBlob = "PDFOutStream"
)

// Parser reads the registry's XML-like response documents.
type Parser struct {
	allowNamespaces bool
}

// ParserOption configures a Parser.
type ParserOption func(*Parser)

// WithNamespaceTolerance accepts namespaced tags (ns2:Ergebnis and similar).
// The live gateway prefixes tags inconsistently between product versions, so
// production parsers enable this.
func WithNamespaceTolerance() ParserOption {
	return func(p *Parser) { p.allowNamespaces = true }
}

func NewParser(opts ...ParserOption) *Parser {
	p := &Parser{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Matches extracts all search hits from a raw result document. An empty
// document or one without result blocks yields an empty slice, not an error;
// zero matches is a legitimate search outcome.
func (p *Parser) Matches(raw string) ([]Match, error) {
	matches := []Match{}
	if strings.TrimSpace(raw) == "" {
		return matches, nil
	}

	dec := p.decoder(raw)
	var current *Match
	var field string

	for {
		tok, err := dec.Token()
		if tok == nil {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			name := p.localName(t.Name)
			switch name {
			case tagResult:
				current = &Match{}
			case tagAreaNumber, tagAreaName, tagFolioNumber:
				field = name
			}
		case xml.CharData:
			if current == nil || field == "" {
				continue
			}
			value := strings.TrimSpace(string(t))
			switch field {
			case tagAreaNumber:
				current.RegistryArea += value
			case tagAreaName:
				current.RegistryAreaName += value
			case tagFolioNumber:
				current.FolioNumber += value
			}
		case xml.EndElement:
			name := p.localName(t.Name)
			switch name {
			case tagResult:
				if current != nil && current.RegistryArea != "" && current.FolioNumber != "" {
					matches = append(matches, *current)
				}
				current = nil
			case field:
				field = ""
			}
		}
	}
	return matches, nil
}

// Payload extracts and decodes the embedded base64 PDF from a raw extract
// response. ok is false when the document carries no payload tag; the caller
// decides whether that is fatal (it is, after a success envelope).
func (p *Parser) Payload(raw string) ([]byte, bool, error) {
	dec := p.decoder(raw)
	var b strings.Builder
	inPayload := false
	found := false

	for {
		tok, err := dec.Token()
		if tok == nil {
			break
		}
		if err != nil {
			return nil, false, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if p.localName(t.Name) == tagDocumentBlob {
				inPayload = true
				found = true
			}
		case xml.CharData:
			if inPayload {
				b.Write(t)
			}
		case xml.EndElement:
			if p.localName(t.Name) == tagDocumentBlob {
				inPayload = false
			}
		}
	}

	if !found {
		return nil, false, nil
	}

	encoded := strings.Map(dropSpace, b.String())
	pdf, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, true, err
	}
	return pdf, true, nil
}

// decoder builds a tolerant XML token reader. Strict mode is off so
// undeclared namespace prefixes surface as Name.Space instead of failing
// the whole document.
func (p *Parser) decoder(raw string) *xml.Decoder {
	dec := xml.NewDecoder(strings.NewReader(raw))
	dec.Strict = false
	dec.AutoClose = xml.HTMLAutoClose
	return dec
}

// localName resolves a tag name, honoring the namespace option. Without
// tolerance, namespaced tags never match and the document parses as empty.
func (p *Parser) localName(name xml.Name) string {
	if !p.allowNamespaces && name.Space != "" {
		return ""
	}
	return name.Local
}

func dropSpace(r rune) rune {
	if r == ' ' || r == '\n' || r == '\r' || r == '\t' {
		return -1
	}
	return r
}
