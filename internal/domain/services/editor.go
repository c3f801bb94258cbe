package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ersonp/famtree/internal/domain"
	"github.com/ersonp/famtree/internal/domain/entities"
	"github.com/ersonp/famtree/internal/domain/ports"
)

// Fallback messages used when the store gives no detail.
const (
	MsgLoadFailed               = "案件の取得に失敗しました"
	MsgCaseNotFound             = "案件が見つかりません"
	MsgAddPersonFailed          = "人物の追加に失敗しました"
	MsgUpdatePersonFailed       = "人物の更新に失敗しました"
	MsgDeletePersonFailed       = "人物の削除に失敗しました"
	MsgAddRelationshipFailed    = "関係性の追加に失敗しました"
	MsgDeleteRelationshipFailed = "関係性の削除に失敗しました"
)

// CaseListLink is where a failed editor points the user back to.
const CaseListLink = "/cases"

// PendingEdgePrefix prefixes the ids of unconfirmed edges.
const PendingEdgePrefix = "pending-"

var (
	// ErrNotLoaded is returned by intents that need a snapshot before the first load succeeded.
	ErrNotLoaded = errors.New("case not loaded")
	// ErrNothingSelected is returned by intents that need a selected node.
	ErrNothingSelected = errors.New("no node selected")
	// ErrUnknownNode is returned when an intent names a node missing from the graph.
	ErrUnknownNode = errors.New("unknown node")
)

// EditState is the interaction state of the editor.
type EditState int

const (
	StateIdle EditState = iota
	StateNodeSelected
	StateConnecting
)

func (s EditState) String() string {
	switch s {
	case StateNodeSelected:
		return "node_selected"
	case StateConnecting:
		return "connecting"
	default:
		return "idle"
	}
}

// LoadStatus tells whether the editor has a graph to show.
type LoadStatus int

const (
	StatusLoading LoadStatus = iota
	StatusReady
	StatusFailed
)

func (s LoadStatus) String() string {
	switch s {
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	default:
		return "loading"
	}
}

// EditorView is a consistent copy of everything the shell renders.
type EditorView struct {
	Status      LoadStatus
	State       EditState
	Selected    string
	ConnectFrom string
	Case        *entities.Case
	Graph       entities.Graph
	Banner      string
	// BackLink is set when the first load failed and no graph can be shown.
	BackLink string
}

type pendingEdge struct {
	edge entities.Edge
	// relationshipID is the store id once creation succeeded.
	relationshipID int64
	// confirmSeq is the last fetch sequence issued before confirmation.
	confirmSeq uint64
}

// Editor is the edit state machine for one case's graph.
//
// Every successful mutation is followed by a full reload, and a reload
// replaces the whole local snapshot. Fetches are numbered; a response older
// than the last applied one is dropped. Methods are safe for concurrent use;
// gateway calls are made without holding the lock.
type Editor struct {
	store  ports.CaseStore
	caseID int64
	logger logrus.FieldLogger
	newID  func() string

	mu          sync.Mutex
	status      LoadStatus
	state       EditState
	prevState   EditState
	selected    string
	connectFrom string
	snapshot    *entities.CaseDetail
	graph       entities.Graph
	pending     []*pendingEdge
	// provisional maps defaulted relationship ids to their confirmSeq.
	provisional map[int64]uint64
	banner      string
	issued      uint64
	applied     uint64
}

// NewEditor creates an Editor for caseID. Call Load before any other intent.
func NewEditor(store ports.CaseStore, caseID int64, logger logrus.FieldLogger) *Editor {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Editor{
		store:       store,
		caseID:      caseID,
		logger:      logger.WithField("case_id", caseID),
		newID:       uuid.NewString,
		provisional: make(map[int64]uint64),
	}
}

// CaseID returns the case this editor works on.
func (e *Editor) CaseID() int64 {
	return e.caseID
}

// Load fetches the full case and applies it as the new snapshot,
// unless a newer fetch has already been applied.
func (e *Editor) Load(ctx context.Context) error {
	e.mu.Lock()
	e.issued++
	seq := e.issued
	e.mu.Unlock()

	detail, err := e.store.GetCase(ctx, e.caseID)

	e.mu.Lock()
	defer e.mu.Unlock()

	log := e.logger.WithField("seq", seq)
	if seq < e.applied {
		log.WithField("applied", e.applied).Debug("discarding stale case fetch")
		return nil
	}

	if err != nil {
		fallback := MsgLoadFailed
		if errors.Is(err, domain.ErrNotFound) {
			fallback = MsgCaseNotFound
		}
		e.banner = domain.UserMessage(err, fallback)
		if e.snapshot == nil {
			e.status = StatusFailed
		}
		log.WithError(err).Warn("case fetch failed")
		return fmt.Errorf("loading case %d: %w", e.caseID, err)
	}

	e.applied = seq
	e.applySnapshot(detail, seq)
	log.WithFields(logrus.Fields{
		"persons":       len(detail.Persons),
		"relationships": len(detail.Relationships),
	}).Debug("snapshot applied")
	return nil
}

// applySnapshot replaces all local graph state. Caller holds e.mu.
func (e *Editor) applySnapshot(detail *entities.CaseDetail, seq uint64) {
	e.snapshot = detail
	e.graph = Project(detail.Persons, detail.Relationships)
	e.status = StatusReady
	for id, confirmSeq := range e.provisional {
		if seq > confirmSeq && !hasRelationship(detail, id) {
			delete(e.provisional, id)
		}
	}
	e.markProvisional()

	kept := e.pending[:0]
	for _, pe := range e.pending {
		if pe.relationshipID != 0 && (seq > pe.confirmSeq || hasRelationship(detail, pe.relationshipID)) {
			continue
		}
		kept = append(kept, pe)
	}
	e.pending = kept

	switch e.state {
	case StateNodeSelected:
		if !e.graph.HasNode(e.selected) {
			e.state, e.selected = StateIdle, ""
		}
	case StateConnecting:
		if !e.graph.HasNode(e.connectFrom) {
			e.state, e.connectFrom = StateIdle, ""
			e.selected = ""
		}
	}
}

// markProvisional flags stored edges whose kind was defaulted in this session. Caller holds e.mu.
func (e *Editor) markProvisional() {
	for i := range e.graph.Edges {
		id, err := ParseNodeID(e.graph.Edges[i].ID)
		if _, ok := e.provisional[id]; ok && err == nil {
			e.graph.Edges[i].Provisional = true
		}
	}
}

func hasRelationship(detail *entities.CaseDetail, id int64) bool {
	for i := range detail.Relationships {
		if detail.Relationships[i].ID == id {
			return true
		}
	}
	return false
}

// AddPerson creates a person through the store and reloads.
// A nil payload creates the default new-person template.
// Nothing is inserted locally before the store answers.
func (e *Editor) AddPerson(ctx context.Context, data *entities.CreatePersonData) error {
	payload := entities.NewPersonTemplate()
	if data != nil {
		payload = *data
	}
	if err := payload.Validate(); err != nil {
		return e.reject(domain.Invalid("add person", err.Error(), err))
	}

	e.mu.Lock()
	if e.snapshot != nil && payload.WantsDecedent() {
		if err := CheckDecedentUnique(e.snapshot.Persons, 0); err != nil {
			e.mu.Unlock()
			return e.reject(err)
		}
	}
	e.mu.Unlock()

	if _, err := e.store.CreatePerson(ctx, e.caseID, payload); err != nil {
		return e.fail("add person", err, MsgAddPersonFailed)
	}
	return e.afterWrite(ctx)
}

// UpdatePerson applies a partial update through the store and reloads.
func (e *Editor) UpdatePerson(ctx context.Context, personID int64, data entities.UpdatePersonData) error {
	if err := data.Validate(); err != nil {
		return e.reject(domain.Invalid("update person", err.Error(), err))
	}

	e.mu.Lock()
	if e.snapshot != nil && data.WantsDecedent() {
		if err := CheckDecedentUnique(e.snapshot.Persons, personID); err != nil {
			e.mu.Unlock()
			return e.reject(err)
		}
	}
	e.mu.Unlock()

	if _, err := e.store.UpdatePerson(ctx, e.caseID, personID, data); err != nil {
		return e.fail("update person", err, MsgUpdatePersonFailed)
	}
	return e.afterWrite(ctx)
}

// SelectNode selects a node. A connect gesture in progress is abandoned.
func (e *Editor) SelectNode(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.graph.HasNode(id) {
		return fmt.Errorf("selecting %q: %w", id, ErrUnknownNode)
	}
	e.state, e.selected, e.connectFrom = StateNodeSelected, id, ""
	return nil
}

// Deselect returns to Idle, as a click on empty canvas does.
func (e *Editor) Deselect() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state, e.selected, e.connectFrom = StateIdle, "", ""
}

// DeletePerson deletes the selected person, then deselects and reloads.
// Relationships that reference the person are left to the store.
func (e *Editor) DeletePerson(ctx context.Context) error {
	e.mu.Lock()
	if e.state != StateNodeSelected {
		e.mu.Unlock()
		return ErrNothingSelected
	}
	selected := e.selected
	e.mu.Unlock()

	personID, err := ParseNodeID(selected)
	if err != nil {
		return fmt.Errorf("parsing node id %q: %w", selected, err)
	}

	if err := e.store.DeletePerson(ctx, e.caseID, personID); err != nil {
		return e.fail("delete person", err, MsgDeletePersonFailed)
	}

	e.mu.Lock()
	if e.state == StateNodeSelected && e.selected == selected {
		e.state, e.selected = StateIdle, ""
	}
	e.mu.Unlock()

	return e.afterWrite(ctx)
}

// BeginConnect starts a connect gesture from source.
func (e *Editor) BeginConnect(source string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.graph.HasNode(source) {
		return fmt.Errorf("connecting from %q: %w", source, ErrUnknownNode)
	}
	if e.state != StateConnecting {
		e.prevState = e.state
	}
	e.state, e.connectFrom = StateConnecting, source
	return nil
}

// CancelConnect abandons a connect gesture and returns to the prior state.
func (e *Editor) CancelConnect() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.endGesture()
}

// endGesture resolves a connect gesture back to Idle or NodeSelected. Caller holds e.mu.
func (e *Editor) endGesture() {
	if e.state != StateConnecting {
		return
	}
	e.connectFrom = ""
	if e.prevState == StateNodeSelected && e.graph.HasNode(e.selected) {
		e.state = StateNodeSelected
		return
	}
	e.state, e.selected = StateIdle, ""
}

// Connect completes a freehand connection with the provisional default kind.
// The edge is shown as pending before the store answers.
// An empty endpoint makes the call a no-op.
func (e *Editor) Connect(ctx context.Context, source, target string) error {
	return e.connect(ctx, source, target, entities.DefaultRelationshipType, true)
}

// ConnectAs completes a connection with an explicitly chosen kind.
func (e *Editor) ConnectAs(ctx context.Context, source, target string, kind entities.RelationshipType) error {
	return e.connect(ctx, source, target, kind, false)
}

func (e *Editor) connect(ctx context.Context, source, target string, kind entities.RelationshipType, provisional bool) error {
	e.mu.Lock()
	e.endGesture()
	if source == "" || target == "" {
		e.mu.Unlock()
		return nil
	}
	if e.snapshot == nil {
		e.mu.Unlock()
		return ErrNotLoaded
	}

	from, errFrom := ParseNodeID(source)
	to, errTo := ParseNodeID(target)
	if errFrom != nil || errTo != nil {
		e.mu.Unlock()
		return e.reject(domain.Invalid("connect", MsgUnknownEndpoint, errors.Join(errFrom, errTo)))
	}
	if !e.graph.HasNode(source) || !e.graph.HasNode(target) {
		e.mu.Unlock()
		return e.reject(domain.Invalid("connect", MsgUnknownEndpoint, ErrUnknownNode))
	}
	if err := CheckConnection(e.snapshot, from, to, kind); err != nil {
		e.mu.Unlock()
		return e.reject(err)
	}

	edge := NewEdge(PendingEdgePrefix+e.newID(), source, target, kind)
	edge.Pending = true
	edge.Provisional = provisional
	pe := &pendingEdge{edge: edge}
	e.pending = append(e.pending, pe)
	e.mu.Unlock()

	rel, err := e.store.CreateRelationship(ctx, e.caseID, entities.CreateRelationshipData{
		FromPersonID: from,
		ToPersonID:   to,
		Type:         kind,
	})

	e.mu.Lock()
	if err != nil {
		e.removePending(pe)
		e.mu.Unlock()
		return e.fail("connect", err, MsgAddRelationshipFailed)
	}
	pe.relationshipID = rel.ID
	pe.confirmSeq = e.issued
	if provisional {
		e.provisional[rel.ID] = pe.confirmSeq
		e.markProvisional()
	}
	e.mu.Unlock()

	return e.afterWrite(ctx)
}

// removePending drops a pending edge. Caller holds e.mu.
func (e *Editor) removePending(target *pendingEdge) {
	for i, pe := range e.pending {
		if pe == target {
			e.pending = append(e.pending[:i], e.pending[i+1:]...)
			return
		}
	}
}

// DeleteRelationship deletes a stored relationship and reloads.
func (e *Editor) DeleteRelationship(ctx context.Context, edgeID string) error {
	relID, err := ParseNodeID(edgeID)
	if err != nil {
		return fmt.Errorf("parsing edge id %q: %w", edgeID, err)
	}
	if err := e.store.DeleteRelationship(ctx, e.caseID, relID); err != nil {
		return e.fail("delete relationship", err, MsgDeleteRelationshipFailed)
	}
	return e.afterWrite(ctx)
}

// DismissBanner clears the error message.
func (e *Editor) DismissBanner() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.banner = ""
}

// View returns a deep copy of the current render state. Pending edges follow stored ones.
// Edges created by Connect keep their provisional mark while the relationship exists.
func (e *Editor) View() EditorView {
	e.mu.Lock()
	defer e.mu.Unlock()

	v := EditorView{
		Status:      e.status,
		State:       e.state,
		Selected:    e.selected,
		ConnectFrom: e.connectFrom,
		Banner:      e.banner,
	}
	if e.status == StatusFailed {
		v.BackLink = CaseListLink
		return v
	}
	if e.snapshot != nil {
		c := e.snapshot.Case.Clone()
		v.Case = &c
	}
	v.Graph = entities.Graph{
		Nodes: append([]entities.Node{}, e.graph.Nodes...),
		Edges: make([]entities.Edge, 0, len(e.graph.Edges)+len(e.pending)),
	}
	v.Graph.Edges = append(v.Graph.Edges, e.graph.Edges...)
	for _, pe := range e.pending {
		v.Graph.Edges = append(v.Graph.Edges, pe.edge)
	}
	return v
}

// Snapshot returns a copy of the last applied case detail, or nil before the first load.
func (e *Editor) Snapshot() *entities.CaseDetail {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.snapshot == nil {
		return nil
	}
	return &entities.CaseDetail{
		Case:          e.snapshot.Case.Clone(),
		Persons:       append([]entities.Person{}, e.snapshot.Persons...),
		Relationships: append([]entities.Relationship{}, e.snapshot.Relationships...),
	}
}

// afterWrite clears the banner and reloads after an acknowledged mutation.
func (e *Editor) afterWrite(ctx context.Context) error {
	e.mu.Lock()
	e.banner = ""
	e.mu.Unlock()
	return e.Load(ctx)
}

// fail records a gateway failure. Local state is left as it was.
func (e *Editor) fail(op string, err error, fallback string) error {
	e.mu.Lock()
	e.banner = domain.UserMessage(err, fallback)
	e.mu.Unlock()
	e.logger.WithError(err).WithField("op", op).Warn("mutation failed")
	return fmt.Errorf("%s: %w", op, err)
}

// reject records an edit refused before reaching the store.
func (e *Editor) reject(err error) error {
	e.mu.Lock()
	e.banner = domain.UserMessage(err, err.Error())
	e.mu.Unlock()
	return err
}
