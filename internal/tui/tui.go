// Package tui is the interactive inventory screen: a filterable, sortable,
// paginated item table with an add/edit form and delete confirmation, all
// backed by the remote item service.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"inv/internal/form"
	"inv/internal/model"
	"inv/internal/store"
)

// Service is everything the UI needs from the remote client.
type Service interface {
	ListItems(ctx context.Context) ([]model.Item, error)
	CreateItem(ctx context.Context, p model.Payload) (model.Item, error)
	UpdateItem(ctx context.Context, id int64, p model.Payload) (model.Item, error)
	DeleteItem(ctx context.Context, id int64) error
}

type mode int

const (
	modeList mode = iota
	modeForm
	modeConfirmDelete
	modeConfirmDiscard
)

// Messages delivered by service commands.
type (
	itemsMsg      []model.Item
	listErrMsg    struct{ err error }
	submitDoneMsg struct {
		item model.Item
		err  error
	}
	deleteDoneMsg struct {
		id  int64
		err error
	}
	qtyDoneMsg struct {
		item model.Item
		err  error
	}
)

type keyMap struct {
	Up, Down, PrevPage, NextPage      key.Binding
	Search, Sort, SortDir, Refresh    key.Binding
	Add, Edit, Delete, IncQty, DecQty key.Binding
	Quit                              key.Binding
}

var keys = keyMap{
	Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	PrevPage: key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "prev page")),
	NextPage: key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next page")),
	Search:   key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
	Sort:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort column")),
	SortDir:  key.NewBinding(key.WithKeys("S"), key.WithHelp("S", "sort direction")),
	Refresh:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	Add:      key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
	Edit:     key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
	Delete:   key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
	IncQty:   key.NewBinding(key.WithKeys("+"), key.WithHelp("+", "qty +1")),
	DecQty:   key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "qty -1")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

type Model struct {
	svc   Service
	store *store.Store
	form  *form.Form
	query store.Query

	mode    mode
	cursor  int // row index within the current page
	notice  string
	failed  bool // notice is an error
	loading bool

	// list search
	search    textinput.Model
	searching bool

	// form inputs, index-aligned with form.Fields
	inputs   []textinput.Model
	focus    int
	formErrs form.Errors

	// pending destructive action
	confirmItem model.Item
	deleting    bool
	adjusting   bool

	width, height int
}

func New(svc Service, pageSize int) Model {
	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "search items..."
	search.CharLimit = 100

	inputs := make([]textinput.Model, len(form.Fields))
	for i, field := range form.Fields {
		ti := textinput.New()
		ti.Prompt = "> "
		ti.Placeholder = field
		ti.CharLimit = 100
		inputs[i] = ti
	}

	return Model{
		svc:     svc,
		store:   store.New(),
		form:    form.New(),
		query:   store.Query{PageSize: pageSize},
		search:  search,
		inputs:  inputs,
		loading: true,
	}
}

// Run starts the Bubble Tea program over the full terminal.
func Run(svc Service, pageSize int) error {
	p := tea.NewProgram(New(svc, pageSize), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func (m Model) Init() tea.Cmd { return m.fetchItems() }

// ---------------------------------------------------
// Commands (each network call is an independent tea.Cmd)
// ---------------------------------------------------

func (m Model) fetchItems() tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		items, err := svc.ListItems(context.Background())
		if err != nil {
			return listErrMsg{err}
		}
		return itemsMsg(items)
	}
}

func (m Model) submitDraft(payload model.Payload, isUpdate bool, id int64) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		var (
			item model.Item
			err  error
		)
		if isUpdate {
			item, err = svc.UpdateItem(context.Background(), id, payload)
		} else {
			item, err = svc.CreateItem(context.Background(), payload)
		}
		return submitDoneMsg{item: item, err: err}
	}
}

func (m Model) deleteItem(id int64) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		return deleteDoneMsg{id: id, err: svc.DeleteItem(context.Background(), id)}
	}
}

func (m Model) adjustQuantity(it model.Item, newQuantity int64) tea.Cmd {
	svc := m.svc
	payload := it.Payload()
	payload.Quantity = newQuantity
	return func() tea.Msg {
		item, err := svc.UpdateItem(context.Background(), it.ItemID, payload)
		return qtyDoneMsg{item: item, err: err}
	}
}

// ---------------------------------------------------
// Update
// ---------------------------------------------------

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case itemsMsg:
		m.store.Replace(msg)
		m.loading = false
		m.clampCursor()
		return m, nil

	case listErrMsg:
		m.loading = false
		m.setFailure("failed to fetch items: " + msg.err.Error())
		return m, nil

	case submitDoneMsg:
		m.form.Finish(msg.err)
		if msg.err != nil {
			// Draft preserved; the user may retry or cancel.
			m.setFailure("failed to save item, please try again")
			return m, nil
		}
		m.closeForm()
		m.setNotice(fmt.Sprintf("saved item %d", msg.item.ItemID))
		m.loading = true
		return m, m.fetchItems()

	case deleteDoneMsg:
		m.deleting = false
		if msg.err != nil {
			m.setFailure("failed to delete item")
			return m, nil
		}
		m.setNotice(fmt.Sprintf("deleted item %d", msg.id))
		m.loading = true
		return m, m.fetchItems()

	case qtyDoneMsg:
		m.adjusting = false
		if msg.err != nil {
			m.setFailure("failed to update quantity")
			return m, nil
		}
		m.setNotice(fmt.Sprintf("quantity of item %d is now %d", msg.item.ItemID, msg.item.Quantity))
		m.loading = true
		return m, m.fetchItems()

	case tea.KeyMsg:
		switch m.mode {
		case modeForm:
			return m.updateForm(msg)
		case modeConfirmDelete:
			return m.updateConfirmDelete(msg)
		case modeConfirmDiscard:
			return m.updateConfirmDiscard(msg)
		default:
			return m.updateList(msg)
		}
	}
	return m, nil
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.searching {
		switch msg.String() {
		case "enter", "esc":
			m.searching = false
			m.search.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		m.query.Filter = m.search.Value()
		m.query.Page = 0
		m.clampCursor()
		return m, cmd
	}

	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case key.Matches(msg, keys.Down):
		if m.cursor < len(m.page().Items)-1 {
			m.cursor++
		}
		return m, nil

	case key.Matches(msg, keys.PrevPage):
		if m.query.Page > 0 {
			m.query.Page--
			m.cursor = 0
		}
		return m, nil

	case key.Matches(msg, keys.NextPage):
		if m.query.Page < m.page().TotalPages-1 {
			m.query.Page++
			m.cursor = 0
		}
		return m, nil

	case key.Matches(msg, keys.Search):
		m.searching = true
		m.search.Focus()
		return m, nil

	case key.Matches(msg, keys.Sort):
		m.query.Sort = m.query.Sort.Next()
		m.query.Page = 0
		m.cursor = 0
		return m, nil

	case key.Matches(msg, keys.SortDir):
		m.query.Desc = !m.query.Desc
		m.query.Page = 0
		m.cursor = 0
		return m, nil

	case key.Matches(msg, keys.Refresh):
		m.loading = true
		return m, m.fetchItems()

	case key.Matches(msg, keys.Add):
		m.form.Cancel()
		m.openForm()
		return m, nil

	case key.Matches(msg, keys.Edit):
		if it, ok := m.selected(); ok {
			m.openForm()
			m.form.Load(it)
			m.syncInputsFromDraft()
		}
		return m, nil

	case key.Matches(msg, keys.Delete):
		if it, ok := m.selected(); ok {
			m.confirmItem = it
			m.mode = modeConfirmDelete
		}
		return m, nil

	case key.Matches(msg, keys.IncQty):
		return m.startAdjust(1)

	case key.Matches(msg, keys.DecQty):
		return m.startAdjust(-1)
	}
	return m, nil
}

func (m Model) startAdjust(delta int64) (tea.Model, tea.Cmd) {
	it, ok := m.selected()
	if !ok || m.adjusting {
		return m, nil
	}
	newQuantity := it.Quantity + delta
	if newQuantity < 0 {
		// Rejected locally; no request goes out.
		m.setFailure("quantity cannot go below zero")
		return m, nil
	}
	m.adjusting = true
	return m, m.adjustQuantity(it, newQuantity)
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		payload, isUpdate, err := m.form.Begin()
		if err != nil {
			if errors.Is(err, form.ErrSubmitInFlight) {
				return m, nil
			}
			var verrs form.Errors
			if errors.As(err, &verrs) {
				m.formErrs = verrs
			}
			return m, nil
		}
		m.formErrs = nil
		m.notice = ""
		return m, m.submitDraft(payload, isUpdate, m.form.ItemID())

	case "esc":
		if m.form.State() == form.Submitting {
			return m, nil
		}
		if m.form.Dirty() {
			m.mode = modeConfirmDiscard
			return m, nil
		}
		m.form.Cancel()
		m.closeForm()
		return m, nil

	case "tab", "down":
		m.setFocus((m.focus + 1) % len(m.inputs))
		return m, nil

	case "shift+tab", "up":
		m.setFocus((m.focus + len(m.inputs) - 1) % len(m.inputs))
		return m, nil
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	m.form.SetField(form.Fields[m.focus], m.inputs[m.focus].Value())
	return m, cmd
}

func (m Model) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y", "enter":
		if m.deleting {
			return m, nil
		}
		m.deleting = true
		m.mode = modeList
		return m, m.deleteItem(m.confirmItem.ItemID)
	case "n", "N", "esc":
		// Declined: nothing happens, no error raised.
		m.mode = modeList
		return m, nil
	}
	return m, nil
}

func (m Model) updateConfirmDiscard(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y", "enter":
		m.form.Cancel()
		m.closeForm()
		return m, nil
	case "n", "N", "esc":
		m.mode = modeForm
		return m, nil
	}
	return m, nil
}

// ---------------------------------------------------
// State helpers
// ---------------------------------------------------

func (m *Model) page() store.Page {
	return m.store.View(m.query)
}

func (m *Model) selected() (model.Item, bool) {
	items := m.page().Items
	if m.cursor < 0 || m.cursor >= len(items) {
		return model.Item{}, false
	}
	return items[m.cursor], true
}

func (m *Model) clampCursor() {
	if n := len(m.page().Items); m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) openForm() {
	m.mode = modeForm
	m.formErrs = nil
	m.notice = ""
	for i := range m.inputs {
		m.inputs[i].SetValue("")
	}
	m.setFocus(0)
}

func (m *Model) closeForm() {
	m.mode = modeList
	m.formErrs = nil
	for i := range m.inputs {
		m.inputs[i].SetValue("")
		m.inputs[i].Blur()
	}
}

func (m *Model) setFocus(i int) {
	m.focus = i
	for j := range m.inputs {
		if j == i {
			m.inputs[j].Focus()
			m.inputs[j].CursorEnd()
		} else {
			m.inputs[j].Blur()
		}
	}
}

func (m *Model) syncInputsFromDraft() {
	for i, field := range form.Fields {
		m.inputs[i].SetValue(m.form.Field(field))
	}
	m.setFocus(0)
}

func (m *Model) setNotice(msg string) {
	m.notice = msg
	m.failed = false
}

func (m *Model) setFailure(msg string) {
	m.notice = msg
	m.failed = true
}

// ---------------------------------------------------
// View
// ---------------------------------------------------

const (
	colID    = 7
	colName  = 22
	colDesc  = 30
	colQty   = 8
	colPrice = 10
)

func (m Model) View() string {
	switch m.mode {
	case modeForm:
		return panelStyle.Render(m.formView())
	case modeConfirmDelete:
		return panelStyle.Render(m.confirmDeleteView())
	case modeConfirmDiscard:
		return panelStyle.Render(m.confirmDiscardView())
	}
	return panelStyle.Render(m.listView())
}

func (m Model) listView() string {
	page := m.page()

	var b strings.Builder
	b.WriteString(m.listTitle(page))
	b.WriteString("\n\n")
	b.WriteString(headerStyle.Render(tableRow("ID", "Name", "Description", "Qty", "Price")))
	b.WriteString("\n")

	if m.loading && page.TotalItems == 0 {
		b.WriteString(mutedStyle.Render("loading..."))
		b.WriteString("\n")
	} else if len(page.Items) == 0 {
		b.WriteString(mutedStyle.Render("no items"))
		b.WriteString("\n")
	}
	for i, it := range page.Items {
		row := tableRow(
			fmt.Sprintf("%d", it.ItemID),
			it.Name,
			it.Description,
			fmt.Sprintf("%d", it.Quantity),
			fmt.Sprintf("%.2f", it.Price),
		)
		if i == m.cursor {
			b.WriteString(selectedStyle.Render("> " + row))
		} else {
			b.WriteString("  " + row)
		}
		b.WriteString("\n")
	}

	if m.searching || m.query.Filter != "" {
		b.WriteString("\n")
		b.WriteString(m.search.View())
		b.WriteString("\n")
	}
	if m.notice != "" {
		b.WriteString("\n")
		b.WriteString(m.noticeView())
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.helpView())
	return b.String()
}

func (m Model) listTitle(page store.Page) string {
	dir := "↑"
	if m.query.Desc {
		dir = "↓"
	}
	title := fmt.Sprintf("%s   %s %d   %s %d/%d   %s %s %s",
		titleStyle.Render("Inventory"),
		accentStyle.Render("Items"), page.TotalItems,
		accentStyle.Render("Page"), page.Page+1, page.TotalPages,
		accentStyle.Render("Sort"), m.query.Sort.String(), dir,
	)
	if m.loading {
		title += "   " + mutedStyle.Render("fetching...")
	}
	return title
}

func (m Model) formView() string {
	var b strings.Builder
	if m.form.IsUpdate() {
		b.WriteString(titleStyle.Render(fmt.Sprintf("Update Item %d", m.form.ItemID())))
	} else {
		b.WriteString(titleStyle.Render("Add Item"))
	}
	if m.form.State() == form.Submitting {
		b.WriteString("   " + mutedStyle.Render("saving..."))
	}
	b.WriteString("\n\n")

	labels := []string{"Item Name", "Description", "Quantity", "Price"}
	for i, field := range form.Fields {
		b.WriteString(labelStyle.Render(labels[i]))
		b.WriteString("\n")
		b.WriteString(m.inputs[i].View())
		b.WriteString("\n")
		if msg, ok := m.formErrs[field]; ok {
			b.WriteString(errorStyle.Render(msg))
			b.WriteString("\n")
		}
	}

	if m.notice != "" {
		b.WriteString("\n")
		b.WriteString(m.noticeView())
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("enter save • tab next field • esc cancel"))
	return b.String()
}

func (m Model) confirmDeleteView() string {
	return fmt.Sprintf("%s\n\n%s\n\n%s",
		titleStyle.Render("Delete item?"),
		fmt.Sprintf("Item %d — %s. You won't be able to revert this.",
			m.confirmItem.ItemID, m.confirmItem.Name),
		helpStyle.Render("y delete • n keep"),
	)
}

func (m Model) confirmDiscardView() string {
	return fmt.Sprintf("%s\n\n%s\n\n%s",
		titleStyle.Render("Discard changes?"),
		"The form has unsaved changes.",
		helpStyle.Render("y discard • n keep editing"),
	)
}

func (m Model) noticeView() string {
	if m.failed {
		return errorStyle.Render("✖ " + m.notice)
	}
	return successStyle.Render("✔ " + m.notice)
}

func (m Model) helpView() string {
	bindings := []key.Binding{
		keys.Up, keys.Down, keys.PrevPage, keys.NextPage,
		keys.Search, keys.Sort, keys.SortDir, keys.Refresh,
		keys.Add, keys.Edit, keys.Delete, keys.IncQty, keys.DecQty,
		keys.Quit,
	}
	parts := make([]string, 0, len(bindings))
	for _, bnd := range bindings {
		h := bnd.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return helpStyle.Render(strings.Join(parts, " • "))
}

func tableRow(id, name, desc, qty, price string) string {
	return fmt.Sprintf("%-*s %-*s %-*s %*s %*s",
		colID, truncate(id, colID),
		colName, truncate(name, colName),
		colDesc, truncate(desc, colDesc),
		colQty, truncate(qty, colQty),
		colPrice, truncate(price, colPrice),
	)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
