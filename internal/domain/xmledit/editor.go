// Package xmledit rewrites date and server literals inside selected nodes of
// an XML document while leaving every other byte untouched.
package xmledit

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/flowbridge/flowbridge-mcp/internal/domain/dates"
	"github.com/flowbridge/flowbridge-mcp/internal/domain/xmldoc"
)

const (
	serverSeparator = "|||"
	cdataOpen       = "<![CDATA["
)

// Rules selects the nodes to edit and what to write into them. Node ids are
// Alteryx ToolIDs or ODI step names.
type Rules struct {
	DateNodes   []string      `json:"date_nodes,omitempty"`
	ServerNodes []string      `json:"server_nodes,omitempty"`
	Date        *dates.Target `json:"date,omitempty"`
	// Forms restricts date rewriting. Empty means every form.
	Forms  []dates.Form `json:"forms,omitempty"`
	Server string       `json:"server,omitempty"`
}

func (r Rules) Validate() error {
	if len(r.DateNodes) > 0 {
		if r.Date == nil {
			return errors.New("date nodes given without a target date")
		}
		if err := r.Date.Validate(); err != nil {
			return err
		}
	}
	if len(r.ServerNodes) > 0 && strings.TrimSpace(r.Server) == "" {
		return errors.New("server nodes given without a server")
	}
	return nil
}

// Change is one rewritten literal.
type Change struct {
	ToolID string `json:"tool_id"`
	Kind   string `json:"kind"`
	Offset int    `json:"offset"`
	Old    string `json:"old"`
	New    string `json:"new"`
}

type Stats struct {
	Dates         int `json:"dates"`
	Servers       int `json:"servers"`
	NodesModified int `json:"nodes_modified"`
}

type Result struct {
	Text     string   `json:"text"`
	Stats    Stats    `json:"stats"`
	Changes  []Change `json:"changes"`
	Warnings []error  `json:"-"`
}

// WarningMessages returns the warnings as strings.
func (r *Result) WarningMessages() []string {
	out := make([]string, 0, len(r.Warnings))
	for _, w := range r.Warnings {
		out = append(out, w.Error())
	}
	return out
}

type Editor struct {
	logger *slog.Logger
}

func NewEditor(logger *slog.Logger) *Editor {
	return &Editor{logger: logger}
}

type pending struct {
	xmldoc.Edit
	change Change
}

// Apply rewrites the nodes named by rules. Targets missing from the document
// are logged and returned as warnings. When nothing matches the returned text
// equals the input.
func (e *Editor) Apply(doc []byte, rules Rules) (*Result, error) {
	if err := rules.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rules: %w", err)
	}
	toks, err := xmldoc.Tokenize(doc)
	if err != nil {
		return nil, err
	}

	index := indexNodes(toks)
	res := &Result{Changes: []Change{}}
	var edits []pending

	for _, id := range rules.DateNodes {
		nodes, ok := index[id]
		if !ok {
			res.warn(e.logger, &RuleTargetNotFoundError{ToolID: id, Purpose: PurposeDate})
			continue
		}
		for _, n := range nodes {
			edits = append(edits, dateEdits(doc, toks, n, id, rules)...)
		}
	}
	for _, id := range rules.ServerNodes {
		nodes, ok := index[id]
		if !ok {
			res.warn(e.logger, &RuleTargetNotFoundError{ToolID: id, Purpose: PurposeServer})
			continue
		}
		for _, n := range nodes {
			edits = append(edits, serverEdits(doc, toks, n, id, rules.Server)...)
		}
	}

	edits = normalize(edits)
	if len(edits) == 0 {
		res.Text = string(doc)
		return res, nil
	}

	plain := make([]xmldoc.Edit, len(edits))
	modified := make(map[string]bool)
	for i, p := range edits {
		plain[i] = p.Edit
		res.Changes = append(res.Changes, p.change)
		modified[p.change.ToolID] = true
		switch p.change.Kind {
		case PurposeDate:
			res.Stats.Dates++
		case PurposeServer:
			res.Stats.Servers++
		}
	}
	out, err := xmldoc.ApplyEdits(doc, plain)
	if err != nil {
		return nil, err
	}
	res.Text = string(out)
	res.Stats.NodesModified = len(modified)

	e.logger.Debug("Applied template rules",
		"dates", res.Stats.Dates,
		"servers", res.Stats.Servers,
		"nodes_modified", res.Stats.NodesModified,
		"warnings", len(res.Warnings))
	return res, nil
}

func (r *Result) warn(logger *slog.Logger, err error) {
	logger.Warn("Rule target not found, skipping", "error", err)
	r.Warnings = append(r.Warnings, err)
}

// indexNodes maps node ids to the indexes of their start tokens. Alteryx
// nodes are keyed by ToolID, ODI steps by name.
func indexNodes(toks []xmldoc.Token) map[string][]int {
	index := make(map[string][]int)
	for i, t := range toks {
		if t.Kind != xmldoc.KindStart {
			continue
		}
		var id string
		switch t.Name {
		case "Node":
			id = xmldoc.Attr(t.Attr, "ToolID")
		case "Step":
			id = xmldoc.Attr(t.Attr, "Name")
		}
		if id != "" {
			index[id] = append(index[id], i)
		}
	}
	return index
}

// ownTokens yields the tokens that belong to the node opened at toks[n],
// skipping nested nodes which carry their own identity.
func ownTokens(toks []xmldoc.Token, n int, yield func(i int)) {
	yield(n)
	for i := n + 1; i < toks[n].Match; i++ {
		t := toks[i]
		if t.Kind == xmldoc.KindStart && t.Name == toks[n].Name {
			i = t.Match
			continue
		}
		yield(i)
	}
}

func dateEdits(doc []byte, toks []xmldoc.Token, n int, id string, rules Rules) []pending {
	allowed := make(map[dates.Form]bool, len(rules.Forms))
	for _, f := range rules.Forms {
		allowed[f] = true
	}

	var out []pending
	scan := func(span xmldoc.Span) {
		text := string(doc[span.Start:span.End])
		for _, m := range dates.Scan(text) {
			if len(allowed) > 0 && !allowed[m.Form] {
				continue
			}
			repl := dates.Format(m.Form, *rules.Date)
			old := text[m.Start:m.End]
			if repl == old {
				continue
			}
			out = append(out, pending{
				Edit:   xmldoc.Edit{Span: xmldoc.Span{Start: span.Start + m.Start, End: span.Start + m.End}, Text: repl},
				change: Change{ToolID: id, Kind: PurposeDate, Offset: span.Start + m.Start, Old: old, New: repl},
			})
		}
	}

	ownTokens(toks, n, func(i int) {
		t := toks[i]
		switch t.Kind {
		case xmldoc.KindText:
			scan(xmldoc.Span{Start: t.Start, End: t.End})
		case xmldoc.KindStart:
			for _, s := range xmldoc.AttrValueSpans(attrPart(doc, t), t.Start+len(t.Name)+1) {
				scan(s)
			}
		}
	})
	return out
}

// attrPart returns the raw start tag after the element name so that quoted
// values are located without tripping over the name itself.
func attrPart(doc []byte, t xmldoc.Token) []byte {
	start := t.Start + len(t.Name) + 1
	if start > t.End {
		return nil
	}
	return doc[start:t.End]
}

// serverEdits replaces the connection part of "server|||query" strings held
// in File elements at any depth of the node. An empty connection part gets
// the server inserted before the separator.
func serverEdits(doc []byte, toks []xmldoc.Token, n int, id, server string) []pending {
	var out []pending
	inFile := -1
	ownTokens(toks, n, func(i int) {
		t := toks[i]
		switch t.Kind {
		case xmldoc.KindStart:
			if t.Name == "File" {
				inFile = t.Depth
			}
		case xmldoc.KindEnd:
			if t.Name == "File" && t.Depth == inFile {
				inFile = -1
			}
		case xmldoc.KindText:
			if inFile < 0 || t.Depth != inFile+1 {
				return
			}
			raw := doc[t.Start:t.End]
			start, repl := t.Start, xmldoc.Escape(server)
			if bytes.HasPrefix(raw, []byte(cdataOpen)) {
				raw = raw[len(cdataOpen):]
				start += len(cdataOpen)
				repl = server
			}
			lead := len(raw) - len(bytes.TrimLeft(raw, " \t\r\n"))
			sep := bytes.Index(raw, []byte(serverSeparator))
			if sep < 0 {
				return
			}
			old := string(raw[lead:sep])
			if old == repl {
				return
			}
			out = append(out, pending{
				Edit:   xmldoc.Edit{Span: xmldoc.Span{Start: start + lead, End: start + sep}, Text: repl},
				change: Change{ToolID: id, Kind: PurposeServer, Offset: start + lead, Old: old, New: repl},
			})
		}
	})
	return out
}

// normalize sorts edits by offset and drops any edit overlapping or sharing
// the start of an earlier one, which also removes repeats when a node id is
// listed twice.
func normalize(edits []pending) []pending {
	sort.SliceStable(edits, func(i, j int) bool { return edits[i].Start < edits[j].Start })
	out := edits[:0]
	end := -1
	for _, e := range edits {
		if e.Start < end || (len(out) > 0 && e.Start == out[len(out)-1].Start) {
			continue
		}
		out = append(out, e)
		end = e.End
	}
	return out
}
