package main

import (
	"strings"
	"sync"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/faticalabs/xmledit/complete"
)

const serverName = "xmledit-ls"

var version = "0.1.0"

// handler adapts the completion engine to the language server protocol. Open
// document contents are kept in memory, keyed by URI; completion maps the
// protocol's line/character position to a byte offset and derives the
// trigger character from the document text.
type handler struct {
	completer *complete.Completer
	documents sync.Map // protocol.DocumentUri -> string
	protocol  protocol.Handler
}

func newHandler(catalogPath string) (*handler, error) {
	schemas, err := complete.LoadCatalog(catalogPath)
	if err != nil {
		return nil, err
	}

	h := &handler{completer: complete.NewCompleter(schemas)}
	h.protocol = protocol.Handler{
		Initialize:             h.initialize,
		Initialized:            h.initialized,
		Shutdown:               h.shutdown,
		SetTrace:               h.setTrace,
		TextDocumentDidOpen:    h.didOpen,
		TextDocumentDidChange:  h.didChange,
		TextDocumentDidClose:   h.didClose,
		TextDocumentCompletion: h.completion,
	}
	return h, nil
}

func (h *handler) protocolHandler() *protocol.Handler {
	return &h.protocol
}

func (h *handler) initialize(context *glsp.Context, params *protocol.InitializeParams) (interface{}, error) {
	capabilities := h.protocol.CreateServerCapabilities()
	capabilities.TextDocumentSync = protocol.TextDocumentSyncKindFull
	capabilities.CompletionProvider = &protocol.CompletionOptions{
		TriggerCharacters: []string{"<", " ", "=", "\""},
	}

	return &protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    serverName,
			Version: &version,
		},
	}, nil
}

func (h *handler) initialized(context *glsp.Context, params *protocol.InitializedParams) error {
	return nil
}

func (h *handler) shutdown(context *glsp.Context) error {
	protocol.SetTraceValue(protocol.TraceValueOff)
	return nil
}

func (h *handler) setTrace(context *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

func (h *handler) didOpen(context *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	h.documents.Store(params.TextDocument.URI, params.TextDocument.Text)
	return nil
}

func (h *handler) didChange(context *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	content, ok := h.document(params.TextDocument.URI)
	if !ok {
		return nil
	}
	for _, change := range params.ContentChanges {
		switch c := change.(type) {
		case protocol.TextDocumentContentChangeEvent:
			start, end := rangeToOffsets(content, c.Range)
			content = content[:start] + c.Text + content[end:]
		case protocol.TextDocumentContentChangeEventWhole:
			content = c.Text
		}
	}
	h.documents.Store(params.TextDocument.URI, content)
	return nil
}

func (h *handler) didClose(context *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	h.documents.Delete(params.TextDocument.URI)
	return nil
}

func (h *handler) completion(context *glsp.Context, params *protocol.CompletionParams) (interface{}, error) {
	content, ok := h.document(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}

	offset := positionToOffset(content, params.Position)
	typed := triggerCharacter(content, offset, params.Context)
	if typed == 0 {
		return nil, nil
	}

	items := h.completer.Complete(content, offset, typed)
	out := make([]protocol.CompletionItem, len(items))
	for i, it := range items {
		out[i] = toProtocolItem(it)
	}
	return out, nil
}

func (h *handler) document(uri protocol.DocumentUri) (string, bool) {
	if v, ok := h.documents.Load(uri); ok {
		return v.(string), true
	}
	return "", false
}

// triggerCharacter decides the character the completer should classify on:
// the client-reported trigger if there is one, otherwise the character just
// before the caret.
func triggerCharacter(content string, offset int, ctx *protocol.CompletionContext) byte {
	if ctx != nil && ctx.TriggerCharacter != nil && len(*ctx.TriggerCharacter) == 1 {
		return (*ctx.TriggerCharacter)[0]
	}
	if offset > 0 && offset <= len(content) {
		return content[offset-1]
	}
	return 0
}

// positionToOffset maps a protocol line/character position to a byte offset.
// The character count is in UTF-16 code units, per the protocol's default
// position encoding. Positions past the end of a line or of the document
// clamp.
func positionToOffset(content string, pos protocol.Position) int {
	offset := 0
	for line := uint32(0); line < pos.Line; line++ {
		next := strings.IndexByte(content[offset:], '\n')
		if next < 0 {
			return len(content)
		}
		offset += next + 1
	}
	lineEnd := strings.IndexByte(content[offset:], '\n')
	if lineEnd < 0 {
		lineEnd = len(content) - offset
	}
	line := content[offset : offset+lineEnd]

	col := int(pos.Character)
	units := 0
	i := 0
	for i < len(line) && units < col {
		r, size := utf8.DecodeRuneInString(line[i:])
		u := utf16.RuneLen(r)
		if u < 0 {
			u = 1
		}
		units += u
		i += size
	}
	return offset + i
}

func rangeToOffsets(content string, r *protocol.Range) (int, int) {
	if r == nil {
		return 0, len(content)
	}
	return positionToOffset(content, r.Start), positionToOffset(content, r.End)
}

func toProtocolItem(it complete.Item) protocol.CompletionItem {
	kind := protocolKind(it.Kind)
	item := protocol.CompletionItem{
		Label: it.Text,
		Kind:  &kind,
	}
	if it.Description != "" {
		item.Documentation = it.Description
	}
	if it.Kind == complete.KindAttribute {
		// Mirror the editor write-back contract: land the caret between the
		// quotes ready for value completion.
		insert := it.Text + `="$1"`
		format := protocol.InsertTextFormatSnippet
		item.InsertText = &insert
		item.InsertTextFormat = &format
	}
	if it.Mandatory {
		detail := "required"
		item.Detail = &detail
	}
	return item
}

func protocolKind(k complete.Kind) protocol.CompletionItemKind {
	switch k {
	case complete.KindAttribute:
		return protocol.CompletionItemKindProperty
	case complete.KindAttributeValue:
		return protocol.CompletionItemKindValue
	case complete.KindNamespaceURI:
		return protocol.CompletionItemKindReference
	default:
		return protocol.CompletionItemKindClass
	}
}
