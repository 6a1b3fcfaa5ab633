// Package tui is the console front end: a task form above a task table.
package tui

import (
	"context"
	"fmt"
	"strings"

	"almacenadora/backend/internal/models"
	"almacenadora/backend/internal/taskstate"
	"almacenadora/backend/internal/validation"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const deletePrompt = "¿Estás seguro de que quieres eliminar esta tarea? (y/n)"

type focusArea int

const (
	focusForm focusArea = iota
	focusTable
)

// Model is the bubbletea model. Store calls run inside commands so the UI
// never blocks on the network.
type Model struct {
	ctx   context.Context
	store *taskstate.Store
	notes <-chan taskstate.Notification

	form    *Form
	focus   focusArea
	cursor  int
	confirm string
	status  *taskstate.Notification
	busy    int
}

type opDoneMsg struct {
	submit bool
	err    error
}

type notificationMsg taskstate.Notification

func New(ctx context.Context, store *taskstate.Store, notes <-chan taskstate.Notification) *Model {
	return &Model{
		ctx:   ctx,
		store: store,
		notes: notes,
		form:  NewForm(),
	}
}

// ChannelNotifier forwards notifications to a channel the model listens on,
// dropping them if nobody keeps up.
type ChannelNotifier chan taskstate.Notification

func (c ChannelNotifier) Notify(n taskstate.Notification) {
	select {
	case c <- n:
	default:
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.run(false, m.store.GetTasks), m.waitForNotification())
}

func (m *Model) waitForNotification() tea.Cmd {
	if m.notes == nil {
		return nil
	}
	return func() tea.Msg {
		n, ok := <-m.notes
		if !ok {
			return nil
		}
		return notificationMsg(n)
	}
}

func (m *Model) run(submit bool, op func(context.Context) error) tea.Cmd {
	m.busy++
	ctx := m.ctx
	return func() tea.Msg {
		return opDoneMsg{submit: submit, err: op(ctx)}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case opDoneMsg:
		if m.busy > 0 {
			m.busy--
		}
		if msg.submit && msg.err == nil {
			m.form.Reset()
		}
		m.clampCursor()
		return m, nil
	case notificationMsg:
		n := taskstate.Notification(msg)
		m.status = &n
		return m, m.waitForNotification()
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		return m, tea.Quit
	}

	if m.confirm != "" {
		id := m.confirm
		m.confirm = ""
		if key == "y" || key == "Y" {
			return m, m.run(false, func(ctx context.Context) error {
				return m.store.DeleteTask(ctx, id)
			})
		}
		return m, nil
	}

	if m.focus == focusForm {
		return m.handleFormKey(msg)
	}
	return m.handleTableKey(key)
}

func (m *Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab", "down":
		if m.form.Focused() == m.form.Len()-1 {
			m.form.Blur()
			m.focus = focusTable
			return m, nil
		}
		m.form.SetFocus(m.form.Focused() + 1)
	case "shift+tab", "up":
		m.form.SetFocus(m.form.Focused() - 1)
	case "enter":
		m.form.Blur()
		return m, m.submit()
	case "esc":
		m.form.Reset()
	case "backspace":
		m.form.Backspace()
	default:
		switch msg.Type {
		case tea.KeyRunes:
			m.form.Insert(string(msg.Runes))
		case tea.KeySpace:
			m.form.Insert(" ")
		}
	}
	return m, nil
}

func (m *Model) submit() tea.Cmd {
	if m.form.SubmitDisabled() {
		return nil
	}

	mode := m.form.Mode()
	if mode.IsEdit() {
		patch := m.form.Patch()
		return m.run(true, func(ctx context.Context) error {
			return m.store.UpdateTask(ctx, mode.TaskID(), patch)
		})
	}

	input := m.form.Input()
	return m.run(true, func(ctx context.Context) error {
		return m.store.AddTask(ctx, input)
	})
}

func (m *Model) handleTableKey(key string) (tea.Model, tea.Cmd) {
	tasks := m.store.Tasks()

	switch key {
	case "q":
		return m, tea.Quit
	case "tab", "shift+tab":
		m.focus = focusForm
	case "esc":
		m.form.Reset()
		m.focus = focusForm
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(tasks)-1 {
			m.cursor++
		}
	case "r":
		return m, m.run(false, m.store.GetTasks)
	case "e":
		if task, ok := m.selected(tasks); ok {
			m.form.LoadTask(task)
			m.focus = focusForm
		}
	case "d":
		if task, ok := m.selected(tasks); ok {
			m.confirm = task.ID
		}
	case " ":
		if task, ok := m.selected(tasks); ok {
			id := task.ID
			return m, m.run(false, func(ctx context.Context) error {
				return m.store.MarkTask(ctx, id)
			})
		}
	}
	return m, nil
}

func (m *Model) selected(tasks []models.Task) (models.Task, bool) {
	if m.cursor < 0 || m.cursor >= len(tasks) {
		return models.Task{}, false
	}
	return tasks[m.cursor], true
}

func (m *Model) clampCursor() {
	n := len(m.store.Tasks())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Almacenadora · Tareas"))
	b.WriteString("\n")
	b.WriteString(panelStyle.Render(m.viewForm()))
	b.WriteString("\n")
	b.WriteString(m.viewTable())
	b.WriteString("\n")
	b.WriteString(m.viewStatus())
	b.WriteString(helpStyle.Render(m.help()))
	b.WriteString("\n")

	return b.String()
}

func (m *Model) viewForm() string {
	var b strings.Builder

	heading := "Nueva tarea"
	if m.form.Mode().IsEdit() {
		heading = "Editando tarea " + m.form.Mode().TaskID()
	}
	b.WriteString(headerStyle.Render(heading) + "\n")

	for i, field := range validation.Fields {
		label := labelStyle.Render(fieldLabels[field] + ":")
		value := m.form.Value(field)
		if m.focus == focusForm && m.form.Focused() == i {
			value = focusedStyle.Render(value + "▏")
		}
		b.WriteString(fmt.Sprintf("%s %s\n", label, value))
		if msg := m.form.ErrorMessage(field); msg != "" {
			b.WriteString(errorStyle.Render("  "+msg) + "\n")
		}
	}

	button := "Agregar"
	if m.form.Mode().IsEdit() {
		button = "Guardar cambios"
	}
	if m.form.SubmitDisabled() {
		b.WriteString(disabledStyle.Render("[" + button + "]"))
	} else {
		b.WriteString(buttonStyle.Render(button))
	}

	return b.String()
}

func (m *Model) viewTable() string {
	tasks := m.store.Tasks()
	if len(tasks) == 0 {
		if m.loading() {
			return "Cargando tareas...\n"
		}
		return disabledStyle.Render("No hay tareas") + "\n"
	}

	var b strings.Builder
	header := fmt.Sprintf("  %-3s %-24s %-12s %-12s %-24s", "", "Nombre", "Inicio", "Fin", "Responsable")
	b.WriteString(headerStyle.Render(header) + "\n")

	for i, task := range tasks {
		check := "[ ]"
		if task.Estado {
			check = "[x]"
		}
		row := fmt.Sprintf("%-3s %-24s %-12s %-12s %-24s",
			check, truncate(task.Nombre, 24), task.FechaInicio, task.FechaFin, truncate(task.NombreYapellidoPersona, 24))
		if task.Estado {
			row = doneStyle.Render(row)
		}
		if m.focus == focusTable && i == m.cursor {
			row = selectedStyle.Render("> ") + row
		} else {
			row = "  " + row
		}
		b.WriteString(row + "\n")
	}

	return b.String()
}

func (m *Model) viewStatus() string {
	var parts []string
	if m.loading() {
		parts = append(parts, "Cargando...")
	}
	if m.confirm != "" {
		parts = append(parts, promptStyle.Render(deletePrompt))
	} else if m.status != nil {
		if m.status.Level == taskstate.LevelError {
			parts = append(parts, errorStyle.Render(m.status.Message))
		} else {
			parts = append(parts, successStyle.Render(m.status.Message))
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, strings.Join(parts, "  ")) + "\n"
}

func (m *Model) help() string {
	if m.focus == focusForm {
		return "tab/shift+tab campos · enter enviar · esc cancelar edición · ctrl+c salir"
	}
	return "↑/↓ mover · e editar · d eliminar · espacio completar · r recargar · tab formulario · q salir"
}

func (m *Model) loading() bool {
	return m.busy > 0 || m.store.IsLoading()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// Run drives the program until the user quits or ctx is cancelled.
func Run(ctx context.Context, store *taskstate.Store, notes <-chan taskstate.Notification) error {
	program := tea.NewProgram(New(ctx, store, notes), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	return err
}
