package meta

import (
	"maps"
	"strconv"
)

// Record is the fixed metadata schema shared by chunks and summaries.
// Zero line numbers mean absent.
type Record struct {
	DocID            string
	SourcePath       string
	Lang             string
	LineStart        int
	LineEnd          int
	LastUpdated      string
	ProductTags      []string
	KeyTopics        []string
	APISymbols       []string
	RelatedFiles     []string
	SuggestedQueries []string
	PageURIs         []string
	// Extra holds scalar keys outside the schema.
	Extra map[string]string
}

// Fields flattens the record into scalar storage fields.
func (r Record) Fields() map[string]string {
	out := make(map[string]string, 12+len(r.Extra))
	maps.Copy(out, r.Extra)

	setIf := func(k, v string) {
		if v != "" {
			out[k] = v
		}
	}
	setIf(KeyDocID, r.DocID)
	setIf(KeySourcePath, r.SourcePath)
	setIf(KeyLang, r.Lang)
	setIf(KeyLastUpdated, r.LastUpdated)
	if r.LineStart > 0 {
		out[KeyLineStart] = strconv.Itoa(r.LineStart)
	}
	if r.LineEnd > 0 {
		out[KeyLineEnd] = strconv.Itoa(r.LineEnd)
	}
	for k, v := range r.lists() {
		out[k] = JoinList(*v)
	}
	return out
}

// FromFields hydrates a record from scalar storage fields.
func FromFields(fields map[string]string) Record {
	var r Record
	for k, v := range fields {
		switch k {
		case KeyDocID:
			r.DocID = v
		case KeySourcePath:
			r.SourcePath = v
		case KeyLang:
			r.Lang = v
		case KeyLastUpdated:
			r.LastUpdated = v
		case KeyLineStart:
			r.LineStart, _ = strconv.Atoi(v)
		case KeyLineEnd:
			r.LineEnd, _ = strconv.Atoi(v)
		default:
			if dst, ok := r.lists()[k]; ok {
				*dst = ParseList(v)
				continue
			}
			if r.Extra == nil {
				r.Extra = make(map[string]string)
			}
			r.Extra[k] = v
		}
	}
	for _, dst := range r.lists() {
		if *dst == nil {
			*dst = []string{}
		}
	}
	return r
}

// Overlay returns r with every non-empty field of top applied over it.
func (r Record) Overlay(top Record) Record {
	out := r
	if top.DocID != "" {
		out.DocID = top.DocID
	}
	if top.SourcePath != "" {
		out.SourcePath = top.SourcePath
	}
	if top.Lang != "" {
		out.Lang = top.Lang
	}
	if top.LastUpdated != "" {
		out.LastUpdated = top.LastUpdated
	}
	if top.LineStart > 0 {
		out.LineStart = top.LineStart
	}
	if top.LineEnd > 0 {
		out.LineEnd = top.LineEnd
	}
	src := top.lists()
	for k, dst := range out.lists() {
		if len(*src[k]) > 0 {
			*dst = *src[k]
		}
	}
	if len(top.Extra) > 0 {
		extra := make(map[string]string, len(r.Extra)+len(top.Extra))
		maps.Copy(extra, r.Extra)
		maps.Copy(extra, top.Extra)
		out.Extra = extra
	}
	return out
}

func (r *Record) lists() map[string]*[]string {
	return map[string]*[]string{
		KeyProductTags:      &r.ProductTags,
		KeyKeyTopics:        &r.KeyTopics,
		KeyAPISymbols:       &r.APISymbols,
		KeyRelatedFiles:     &r.RelatedFiles,
		KeySuggestedQueries: &r.SuggestedQueries,
		KeyPageURIs:         &r.PageURIs,
	}
}

// Map renders the record as a JSON-friendly map: lists stay lists, zero
// line numbers and empty scalars are omitted, Extra keys are merged in.
func (r Record) Map() map[string]any {
	out := make(map[string]any, 12+len(r.Extra))
	for k, v := range r.Extra {
		out[k] = v
	}
	for k, v := range map[string]string{
		KeyDocID:       r.DocID,
		KeySourcePath:  r.SourcePath,
		KeyLang:        r.Lang,
		KeyLastUpdated: r.LastUpdated,
	} {
		if v != "" {
			out[k] = v
		}
	}
	if r.LineStart > 0 {
		out[KeyLineStart] = r.LineStart
	}
	if r.LineEnd > 0 {
		out[KeyLineEnd] = r.LineEnd
	}
	for k, v := range r.lists() {
		if len(*v) > 0 {
			out[k] = *v
		}
	}
	return out
}
