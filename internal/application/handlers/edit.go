package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ersonp/famtree/internal/domain/entities"
	"github.com/ersonp/famtree/internal/domain/services"
)

// EditHelp lists the commands of an edit session.
const EditHelp = `Commands:
  show                          print the graph
  reload                        fetch the case again
  add [name]                    add a person (placeholder name when omitted)
  set <id> <field>=<value>...   update a person (name, alive, birth, death, gender, decedent, spouse)
  select <id>                   select a person
  deselect                      clear the selection
  delete                        delete the selected person
  begin <id>                    start connecting from a person
  cancel                        abandon the connection in progress
  connect [<from>] <to> [type]  connect two persons (type: child_of, spouse_of, sibling_of)
  unlink <edge-id>              delete a relationship
  dismiss                       clear the error message
  help                          show this help
  quit                          leave the editor`

// EditSession drives an Editor from text commands.
type EditSession struct {
	editor *services.Editor
	out    io.Writer
}

// NewEditSession creates a session writing its output to out.
func NewEditSession(editor *services.Editor, out io.Writer) *EditSession {
	return &EditSession{
		editor: editor,
		out:    out,
	}
}

// Start loads the case and prints the graph.
func (s *EditSession) Start(ctx context.Context) error {
	err := s.editor.Load(ctx)
	s.render()
	return err
}

// Execute runs one command line. It reports true when the session should end.
// Editor failures are returned after the banner has been printed.
func (s *EditSession) Execute(ctx context.Context, line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	cmd, args := fields[0], fields[1:]

	var err error
	switch cmd {
	case "quit", "exit":
		return true, nil
	case "help":
		fmt.Fprintln(s.out, EditHelp)
		return false, nil
	case "show":
		s.render()
		return false, nil
	case "reload":
		err = s.editor.Load(ctx)
	case "add":
		err = s.add(ctx, args)
	case "set":
		err = s.set(ctx, args)
	case "select":
		if len(args) != 1 {
			return false, errors.New("usage: select <id>")
		}
		err = s.editor.SelectNode(args[0])
	case "deselect":
		s.editor.Deselect()
	case "delete":
		err = s.editor.DeletePerson(ctx)
	case "begin":
		if len(args) != 1 {
			return false, errors.New("usage: begin <id>")
		}
		err = s.editor.BeginConnect(args[0])
	case "cancel":
		s.editor.CancelConnect()
	case "connect":
		err = s.connect(ctx, args)
	case "unlink":
		if len(args) != 1 {
			return false, errors.New("usage: unlink <edge-id>")
		}
		err = s.editor.DeleteRelationship(ctx, args[0])
	case "dismiss":
		s.editor.DismissBanner()
	default:
		return false, fmt.Errorf("unknown command %q (try help)", cmd)
	}

	s.render()
	return false, err
}

func (s *EditSession) add(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return s.editor.AddPerson(ctx, nil)
	}
	data := entities.NewPersonTemplate()
	data.Name = strings.Join(args, " ")
	return s.editor.AddPerson(ctx, &data)
}

func (s *EditSession) set(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: set <id> <field>=<value>...")
	}
	personID, err := services.ParseNodeID(args[0])
	if err != nil {
		return fmt.Errorf("invalid person id %q", args[0])
	}

	var in PersonInput
	for _, arg := range args[1:] {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			return fmt.Errorf("expected field=value, got %q", arg)
		}
		if err := setField(&in, key, value); err != nil {
			return err
		}
	}

	data := entities.UpdatePersonData{
		Name:       in.Name,
		IsAlive:    in.Alive,
		Gender:     in.Gender,
		IsDecedent: in.Decedent,
		IsSpouse:   in.Spouse,
	}
	if data.BirthDate, err = parseDateInput("birth date", in.BirthDate); err != nil {
		return err
	}
	if data.DeathDate, err = parseDateInput("death date", in.DeathDate); err != nil {
		return err
	}
	return s.editor.UpdatePerson(ctx, personID, data)
}

func setField(in *PersonInput, key, value string) error {
	switch key {
	case "name":
		in.Name = &value
	case "gender":
		in.Gender = &value
	case "birth":
		in.BirthDate = &value
	case "death":
		in.DeathDate = &value
	case "alive", "decedent", "spouse":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid %s value %q", key, value)
		}
		switch key {
		case "alive":
			in.Alive = &b
		case "decedent":
			in.Decedent = &b
		default:
			in.Spouse = &b
		}
	default:
		return fmt.Errorf("unknown field %q", key)
	}
	return nil
}

// connect accepts "<to>" while connecting, or "<from> <to>", each optionally followed by a type.
func (s *EditSession) connect(ctx context.Context, args []string) error {
	view := s.editor.View()

	var source, target string
	var kind string
	switch {
	case len(args) >= 1 && view.State == services.StateConnecting && (len(args) == 1 || isRelationshipType(args[1])):
		source, target = view.ConnectFrom, args[0]
		if len(args) > 1 {
			kind = args[1]
		}
	case len(args) == 2 || len(args) == 3:
		source, target = args[0], args[1]
		if len(args) == 3 {
			kind = args[2]
		}
	default:
		return errors.New("usage: connect [<from>] <to> [type]")
	}

	if kind == "" {
		return s.editor.Connect(ctx, source, target)
	}
	rt, err := entities.ParseRelationshipType(kind)
	if err != nil {
		return err
	}
	return s.editor.ConnectAs(ctx, source, target, rt)
}

func isRelationshipType(s string) bool {
	_, err := entities.ParseRelationshipType(s)
	return err == nil
}

func (s *EditSession) render() {
	RenderView(s.out, s.editor.View())
}

// RenderView prints an editor view as text.
func RenderView(w io.Writer, v services.EditorView) {
	if v.Banner != "" {
		fmt.Fprintf(w, "! %s\n", v.Banner)
	}
	switch v.Status {
	case services.StatusLoading:
		fmt.Fprintln(w, "loading...")
		return
	case services.StatusFailed:
		fmt.Fprintf(w, "back to %s\n", v.BackLink)
		return
	}

	if v.Case != nil {
		fmt.Fprintf(w, "# %s (case %d, %s)\n", v.Case.Title, v.Case.ID, v.Case.Status)
	}
	if len(v.Graph.Nodes) == 0 {
		fmt.Fprintln(w, "no persons yet (add one with: add [name])")
	}
	for _, n := range v.Graph.Nodes {
		marker := " "
		if n.ID == v.Selected {
			marker = "*"
		}
		if n.ID == v.ConnectFrom {
			marker = ">"
		}
		role := ""
		if n.Label.Role != "" {
			role = " " + n.Label.Role
		}
		fmt.Fprintf(w, "%s [%s] %s%s (%s)\n", marker, n.ID, n.Label.Name, role, n.Label.Status)
	}
	for _, e := range v.Graph.Edges {
		suffix := ""
		if e.Provisional {
			suffix += " (default kind)"
		}
		if e.Pending {
			suffix += " (saving)"
		}
		fmt.Fprintf(w, "  %s: %s -> %s %s%s\n", e.ID, e.Source, e.Target, e.Label, suffix)
	}

	switch v.State {
	case services.StateNodeSelected:
		fmt.Fprintf(w, "selected: %s\n", v.Selected)
	case services.StateConnecting:
		fmt.Fprintf(w, "connecting from: %s\n", v.ConnectFrom)
	}
}
