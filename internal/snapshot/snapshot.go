// Package snapshot implements the Snapshot Engine (C5), spec §4.5: four
// tree-walking renderers (interactive/outline/content/extract) sharing ref
// allocation and a two-pass grep integration.
package snapshot

import (
	"fmt"
	"strings"

	"golang.org/x/exp/slices"

	"github.com/fenwickbrowser/corebrowser/internal/accessible"
	"github.com/fenwickbrowser/corebrowser/internal/coretypes"
	"github.com/fenwickbrowser/corebrowser/internal/dom"
	"github.com/fenwickbrowser/corebrowser/internal/grep"
	"github.com/fenwickbrowser/corebrowser/internal/refmap"
	"github.com/fenwickbrowser/corebrowser/internal/selector"
	"github.com/fenwickbrowser/corebrowser/internal/visibility"
)

const defaultMaxDepth = 40

// item is one candidate row before grep filtering: the rendered line, its
// enriched search text, and the ref/role/name to surface in the sidecar
// table when it survives filtering.
type item struct {
	line       string
	searchText string
	ref        string
	role       string
	name       string
}

// Engine renders SnapshotData from a live Document, spec §4.5.
type Engine struct{}

// New constructs an Engine. The Engine itself is stateless; per-call state
// (the RefMap epoch) is threaded through Create.
func New() *Engine { return &Engine{} }

// Create renders opts.Mode against doc/win, allocating refs from refMap.
// Every snapshot call begins a fresh RefMap epoch, spec §4.3/§4.5.
func (e *Engine) Create(doc dom.Document, win dom.Window, refMap *refmap.Map, opts coretypes.SnapshotOptions) (coretypes.SnapshotData, error) {
	refMap.Clear()

	root, err := resolveRoot(doc, refMap, opts.Root)
	if err != nil {
		return coretypes.SnapshotData{}, err
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = defaultMaxDepth
	}

	var (
		items []item
		meta  coretypes.SnapshotMetadata
	)

	switch opts.Mode {
	case coretypes.ModeInteractive:
		items, meta = renderInteractive(doc, win, refMap, root, opts)
	case coretypes.ModeOutline:
		items, meta = renderOutline(doc, win, refMap, root, opts)
	case coretypes.ModeContent:
		items, meta = renderContent(doc, win, root, opts)
	case coretypes.ModeExtract:
		items, meta = renderExtract(doc, win, refMap, root, opts)
	default:
		return coretypes.SnapshotData{}, fmt.Errorf("unknown snapshot mode %q", opts.Mode)
	}
	meta.Mode = opts.Mode

	if opts.Grep != nil && strings.TrimSpace(opts.Grep.Pattern) != "" {
		searchable := make([]grep.SearchableItem, len(items))
		for i, it := range items {
			searchable[i] = grep.SearchableItem{Line: it.line, SearchText: it.searchText}
		}
		result := grep.Apply(searchable, grep.Pattern{
			Pattern:      opts.Grep.Pattern,
			IgnoreCase:   opts.Grep.IgnoreCase,
			Invert:       opts.Grep.Invert,
			FixedStrings: opts.Grep.FixedStrings,
		})
		filtered := make([]item, 0, len(result.Items))
		kept := make(map[string]bool, len(result.Items))
		for _, si := range result.Items {
			kept[si.Line+"\x00"+si.SearchText] = true
		}
		for _, it := range items {
			if kept[it.line+"\x00"+it.searchText] {
				filtered = append(filtered, it)
			}
		}
		items = filtered
		meta.GrepPattern = opts.Grep.Pattern
		meta.GrepMatches = result.MatchCount
		meta.Degraded = result.Degraded
	}

	meta.CapturedCount = len(items)
	meta.Words = wordCount(root.InnerText())

	lines := make([]string, len(items))
	refs := make(map[string]coretypes.RefEntry, len(items))
	for i, it := range items {
		lines[i] = it.line
		if it.ref != "" {
			refs[it.ref] = coretypes.RefEntry{Selector: it.ref, Role: it.role, Name: it.name}
		}
	}

	header := fmt.Sprintf("PAGE: %q %s", doc.Title(), doc.URL()) + "\n" + modeHeader(opts.Mode, meta) + "\n\n"
	tree := header + strings.Join(lines, "\n")

	if opts.MaxLength > 0 && len(tree) > opts.MaxLength {
		tree = tree[:opts.MaxLength]
		meta.Truncated = true
	}

	return coretypes.SnapshotData{Tree: tree, Refs: refs, Metadata: meta}, nil
}

// modeHeader renders the snapshot's second line: the mode tag followed by
// its counters, always ending in words= and, when grep is active, the
// grep=/matches= pair, spec §4.5 Stats / §6.
func modeHeader(mode coretypes.SnapshotMode, meta coretypes.SnapshotMetadata) string {
	parts := []string{fmt.Sprintf("MODE: %s", mode)}
	switch mode {
	case coretypes.ModeOutline:
		parts = append(parts,
			fmt.Sprintf("landmarks=%d", meta.Landmarks),
			fmt.Sprintf("sections=%d", meta.Sections),
			fmt.Sprintf("headings=%d", meta.Headings),
		)
	default:
		parts = append(parts, fmt.Sprintf("captured=%d", meta.CapturedCount))
	}
	parts = append(parts, fmt.Sprintf("words=%d", meta.Words))
	if meta.GrepPattern != "" {
		parts = append(parts, fmt.Sprintf("grep=%s matches=%d", meta.GrepPattern, meta.GrepMatches))
	}
	return strings.Join(parts, " ")
}

func resolveRoot(doc dom.Document, refMap *refmap.Map, sel string) (dom.Element, error) {
	if strings.TrimSpace(sel) == "" {
		body, ok := doc.Body()
		if !ok {
			return nil, fmt.Errorf("document has no body")
		}
		return body, nil
	}
	resolver := selector.New(doc, refMap)
	el, ok, err := resolver.ResolveOne(sel)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("root selector %s matched nothing", sel)
	}
	return el, nil
}

func indent(depth int) string {
	return strings.Repeat("  ", depth)
}

// renderInteractive lists every interactive/focusable element, spec §4.5.
func renderInteractive(doc dom.Document, win dom.Window, refMap *refmap.Map, root dom.Element, opts coretypes.SnapshotOptions) ([]item, coretypes.SnapshotMetadata) {
	var items []item
	var meta coretypes.SnapshotMetadata

	walk(doc, root, opts.MaxDepth, func(el dom.Element, depth int) bool {
		visOpts := visibility.Options{IncludeHidden: opts.IncludeHidden, RequireNonZeroRect: false}
		if !opts.IncludeHidden && !visibility.Visible(win, el, visOpts) {
			return false
		}
		info := accessible.Resolve(el)
		if !accessible.IsInteractive(info.Role, el) {
			return true
		}
		ref := refMap.GenerateRef(el)
		lineParts := []string{strings.ToUpper(string(info.Role)), fmt.Sprintf("%q", info.Name), ref}
		if flags := stateSuffix(info.State); flags != "" {
			lineParts = append(lineParts, flags)
		}
		items = append(items, item{
			line:       indent(depth) + strings.Join(lineParts, " "),
			searchText: strings.Join([]string{string(info.Role), info.Name, attrBlob(el)}, " "),
			ref:        ref,
			role:       string(info.Role),
			name:       info.Name,
		})
		if coretypes.LandmarkRoles[info.Role] {
			meta.Landmarks++
		}
		return true
	})
	return items, meta
}

func stateSuffix(st coretypes.State) string {
	var flags []string
	if st.Disabled {
		flags = append(flags, "disabled")
	}
	if st.Checked {
		flags = append(flags, "checked")
	}
	if st.Selected {
		flags = append(flags, "selected")
	}
	if st.HasExpanded {
		flags = append(flags, fmt.Sprintf("expanded=%t", st.Expanded))
	}
	if len(flags) == 0 {
		return ""
	}
	return "[" + strings.Join(flags, ",") + "]"
}

func attrBlob(el dom.Element) string {
	var parts []string
	for _, name := range []string{"id", "class", "name", "placeholder", "aria-label", "data-testid"} {
		if v, ok := el.Attr(name); ok && v != "" {
			parts = append(parts, name+":"+v)
		}
	}
	return strings.Join(parts, "|")
}

const outlineSectionWordThreshold = 50

// renderOutline builds a landmark/heading/section structure, promoting
// text-heavy anonymous divs to regions and flagging scroll containers,
// spec §4.5/§9.
func renderOutline(doc dom.Document, win dom.Window, refMap *refmap.Map, root dom.Element, opts coretypes.SnapshotOptions) ([]item, coretypes.SnapshotMetadata) {
	var items []item
	var meta coretypes.SnapshotMetadata

	walk(doc, root, opts.MaxDepth, func(el dom.Element, depth int) bool {
		info := accessible.Resolve(el)
		visOpts := visibility.Options{IncludeHidden: opts.IncludeHidden, RequireNonZeroRect: false}
		if !opts.IncludeHidden && !visibility.Visible(win, el, visOpts) {
			return false
		}

		switch {
		case info.Role == coretypes.RoleHeading:
			// Headings receive no ref, spec §4.5: "headings and lists do not."
			items = append(items, item{
				line:       fmt.Sprintf("%sHEADING level=%d %q %s", indent(depth), info.Level, info.Name, semanticXPath(el)),
				searchText: info.Name,
				role:       string(info.Role), name: info.Name,
			})
			meta.Headings++
		case coretypes.LandmarkRoles[info.Role]:
			ref := refMap.GenerateRef(el)
			items = append(items, item{
				line:       sectionLine(depth, info.Role, info.Name, ref, el),
				searchText: string(info.Role) + " " + info.Name,
				ref:        ref, role: string(info.Role), name: info.Name,
			})
			meta.Landmarks++
		case info.Role == coretypes.RoleArticle || info.Role == coretypes.RoleRegion:
			ref := refMap.GenerateRef(el)
			items = append(items, item{
				line:       sectionLine(depth, info.Role, info.Name, ref, el),
				searchText: string(info.Role) + " " + info.Name,
				ref:        ref, role: string(info.Role), name: info.Name,
			})
			meta.Sections++
		case info.Role == coretypes.RoleList:
			// Lists receive no ref, spec §4.5: "headings and lists do not."
			items = append(items, item{
				line:       fmt.Sprintf("%sLIST (%d items) %s", indent(depth), len(listItems(el)), semanticXPath(el)),
				searchText: el.InnerText(),
				role:       string(info.Role), name: info.Name,
			})
		default:
			words := wordCount(el.InnerText())
			anonymousDiv := strings.ToLower(el.TagName()) == "div" && (el.ID() != "" || len(el.ClassList()) > 0)
			if anonymousDiv && words >= outlineSectionWordThreshold && !accessible.IsInteractive(info.Role, el) && !isTextLeaf(el) {
				ref := refMap.GenerateRef(el)
				items = append(items, item{
					line:       fmt.Sprintf("%sREGION (~%d words)%s %s", indent(depth), words, scrollSuffix(el), semanticXPath(el)),
					searchText: el.InnerText(),
					ref:        ref, role: "region", name: "",
				})
				meta.Sections++
				return false // the promoted region subsumes its subtree
			}
		}
		return true
	})
	return items, meta
}

// sectionLine renders one landmark/article/region outline line: uppercase
// role token, optional quoted name, ref, optional scroll-container flag, and
// the trailing semantic XPath, spec §4.5/§6.
func sectionLine(depth int, role coretypes.Role, name, ref string, el dom.Element) string {
	parts := []string{strings.ToUpper(string(role))}
	if name != "" {
		parts = append(parts, fmt.Sprintf("%q", name))
	}
	parts = append(parts, ref)
	if s := strings.TrimSpace(scrollSuffix(el)); s != "" {
		parts = append(parts, s)
	}
	parts = append(parts, semanticXPath(el))
	return indent(depth) + strings.Join(parts, " ")
}

// semanticXPath builds a short locator for el, anchored at the nearest
// ancestor carrying an id (or the document root, absent one), with intervening
// segments disambiguated by same-tag sibling position, spec §4.5
// ("/main[@id='content']/article[2]" style).
func semanticXPath(el dom.Element) string {
	var segments []string
	cur := el
	for {
		tag := strings.ToLower(cur.TagName())
		seg := tag
		if id := cur.ID(); id != "" {
			segments = append([]string{fmt.Sprintf("%s[@id='%s']", tag, id)}, segments...)
			break
		}
		if idx, total := siblingPosition(cur); total > 1 {
			seg = fmt.Sprintf("%s[%d]", tag, idx)
		}
		segments = append([]string{seg}, segments...)
		parent, ok := cur.Parent()
		if !ok {
			break
		}
		cur = parent
	}
	return "/" + strings.Join(segments, "/")
}

// siblingPosition reports el's 1-based position among its parent's
// same-tag children, and how many such siblings exist.
func siblingPosition(el dom.Element) (index, total int) {
	parent, ok := el.Parent()
	if !ok {
		return 1, 1
	}
	tag := strings.ToLower(el.TagName())
	for _, c := range parent.Children() {
		if strings.ToLower(c.TagName()) != tag {
			continue
		}
		total++
		if c == el {
			index = total
		}
	}
	return index, total
}

func scrollSuffix(el dom.Element) string {
	scrollTop, scrollHeight, clientHeight := el.ScrollMetrics()
	if clientHeight <= 0 || scrollHeight <= clientHeight {
		return ""
	}
	above := scrollTop
	below := scrollHeight - clientHeight - scrollTop
	pct := int((scrollTop / (scrollHeight - clientHeight)) * 100)
	return fmt.Sprintf(" scrollable(%.1f↑ %.1f↓ %d%%)", above/clientHeight, below/clientHeight, pct)
}

func isTextLeaf(el dom.Element) bool {
	return len(el.Children()) == 0
}

// listItems returns el's direct <li> children, for the outline mode item
// count suffix, spec §4.5.
func listItems(el dom.Element) []dom.Element {
	var items []dom.Element
	for _, c := range el.Children() {
		if strings.ToLower(c.TagName()) == "li" {
			items = append(items, c)
		}
	}
	return items
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}

// renderContent walks the full subtree emitting one line per block with
// non-empty text, honoring includeLinks/includeImages, spec §4.5.
func renderContent(doc dom.Document, win dom.Window, root dom.Element, opts coretypes.SnapshotOptions) ([]item, coretypes.SnapshotMetadata) {
	var items []item
	var meta coretypes.SnapshotMetadata

	walk(doc, root, opts.MaxDepth, func(el dom.Element, depth int) bool {
		visOpts := visibility.Options{IncludeHidden: opts.IncludeHidden}
		if !opts.IncludeHidden && !visibility.Visible(win, el, visOpts) {
			return false
		}
		tag := strings.ToLower(el.TagName())

		if tag == "a" && opts.IncludeLinks {
			href, _ := el.Attr("href")
			text := strings.TrimSpace(el.InnerText())
			if text != "" {
				items = append(items, item{
					line:       fmt.Sprintf("%s[%s](%s)", indent(depth), text, href),
					searchText: text + " " + href,
				})
			}
			return false
		}
		if tag == "img" && opts.IncludeImages {
			alt, _ := el.Attr("alt")
			src, _ := el.Attr("src")
			items = append(items, item{
				line:       fmt.Sprintf("%simage %q (%s)", indent(depth), alt, src),
				searchText: alt + " " + src,
			})
			return false
		}
		if !isTextLeaf(el) {
			return true
		}
		text := strings.TrimSpace(el.InnerText())
		if text == "" {
			return true
		}
		items = append(items, item{line: fmt.Sprintf("%s%s", indent(depth), text), searchText: text})
		return true
	})
	return items, meta
}

// renderExtract emits a structured dump honoring opts.Format, spec §4.5:
// tree mirrors content mode, html reconstructs an approximate tag tree,
// markdown lowers headings/links to Markdown syntax.
func renderExtract(doc dom.Document, win dom.Window, refMap *refmap.Map, root dom.Element, opts coretypes.SnapshotOptions) ([]item, coretypes.SnapshotMetadata) {
	switch opts.Format {
	case coretypes.FormatHTML:
		return renderExtractHTML(doc, win, refMap, root, opts)
	case coretypes.FormatMarkdown:
		return renderExtractMarkdown(doc, win, root, opts)
	default:
		return renderContent(doc, win, root, opts)
	}
}

func renderExtractHTML(doc dom.Document, win dom.Window, refMap *refmap.Map, root dom.Element, opts coretypes.SnapshotOptions) ([]item, coretypes.SnapshotMetadata) {
	var items []item
	var meta coretypes.SnapshotMetadata
	walk(doc, root, opts.MaxDepth, func(el dom.Element, depth int) bool {
		visOpts := visibility.Options{IncludeHidden: opts.IncludeHidden}
		if !opts.IncludeHidden && !visibility.Visible(win, el, visOpts) {
			return false
		}
		tag := strings.ToLower(el.TagName())
		ref := refMap.GenerateRef(el)
		items = append(items, item{
			line:       fmt.Sprintf("%s<%s %s>%s", indent(depth), tag, attrBlob(el), strings.TrimSpace(el.TextContent())),
			searchText: tag + " " + attrBlob(el) + " " + el.TextContent(),
			ref:        ref,
		})
		return true
	})
	meta.CapturedCount = len(items)
	return items, meta
}

func renderExtractMarkdown(doc dom.Document, win dom.Window, root dom.Element, opts coretypes.SnapshotOptions) ([]item, coretypes.SnapshotMetadata) {
	var items []item
	var meta coretypes.SnapshotMetadata
	walk(doc, root, opts.MaxDepth, func(el dom.Element, depth int) bool {
		visOpts := visibility.Options{IncludeHidden: opts.IncludeHidden}
		if !opts.IncludeHidden && !visibility.Visible(win, el, visOpts) {
			return false
		}
		tag := strings.ToLower(el.TagName())
		switch {
		case len(tag) == 2 && tag[0] == 'h' && slices.Contains([]string{"1", "2", "3", "4", "5", "6"}, tag[1:]):
			level := int(tag[1] - '0')
			text := strings.TrimSpace(el.InnerText())
			if text != "" {
				items = append(items, item{line: strings.Repeat("#", level) + " " + text, searchText: text})
				meta.Headings++
			}
			return false
		case tag == "a":
			href, _ := el.Attr("href")
			text := strings.TrimSpace(el.InnerText())
			if text != "" {
				items = append(items, item{line: fmt.Sprintf("[%s](%s)", text, href), searchText: text + " " + href})
			}
			return false
		case isTextLeaf(el):
			text := strings.TrimSpace(el.InnerText())
			if text != "" {
				items = append(items, item{line: text, searchText: text})
			}
		}
		return true
	})
	meta.CapturedCount = len(items)
	return items, meta
}

// walk is a depth-bounded pre-order traversal shared by every renderer;
// visibility is left to fn. fn returning false skips the subtree rooted at the current
// element (but the element's own line, if any, was already emitted by fn).
func walk(doc dom.Document, root dom.Element, maxDepth int, fn func(el dom.Element, depth int) bool) {
	var visit func(el dom.Element, depth int)
	visit = func(el dom.Element, depth int) {
		if depth > maxDepth {
			return
		}
		descend := fn(el, depth)
		if !descend {
			return
		}
		for _, child := range el.Children() {
			visit(child, depth+1)
		}
	}
	visit(root, 0)
}
