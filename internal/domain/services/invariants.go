package services

import (
	"github.com/ersonp/famtree/internal/domain"
	"github.com/ersonp/famtree/internal/domain/entities"
)

// Messages for rejected edits.
const (
	MsgSecondDecedent  = "被相続人は1人だけ指定できます"
	MsgSelfConnection  = "同じ人物同士は関係を作成できません"
	MsgDescentCycle    = "親子関係が循環するため作成できません"
	MsgUnknownEndpoint = "存在しない人物とは関係を作成できません"
)

// Decedents returns the ids of every person flagged as decedent.
// The store does not guarantee there is at most one.
func Decedents(persons []entities.Person) []int64 {
	var ids []int64
	for i := range persons {
		if persons[i].IsDecedent {
			ids = append(ids, persons[i].ID)
		}
	}
	return ids
}

// CheckDecedentUnique rejects flagging a person as decedent while another
// person of the case already is. exceptID is the person being edited (0 for a new one).
func CheckDecedentUnique(persons []entities.Person, exceptID int64) error {
	for _, id := range Decedents(persons) {
		if id != exceptID {
			return domain.Invalid("check decedent", MsgSecondDecedent, nil)
		}
	}
	return nil
}

// IsAncestor reports whether ancestor is reachable from person by following
// child_of edges (child to parent).
func IsAncestor(relationships []entities.Relationship, ancestor, person int64) bool {
	parents := make(map[int64][]int64)
	for i := range relationships {
		r := &relationships[i]
		if r.Type == entities.RelationChildOf {
			parents[r.FromPersonID] = append(parents[r.FromPersonID], r.ToPersonID)
		}
	}

	seen := map[int64]bool{person: true}
	queue := []int64{person}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, p := range parents[current] {
			if p == ancestor {
				return true
			}
			if !seen[p] {
				seen[p] = true
				queue = append(queue, p)
			}
		}
	}
	return false
}

// CheckConnection validates a new relationship against the snapshot:
// both endpoints must exist, must differ, and a child_of edge must not close a descent cycle.
func CheckConnection(detail *entities.CaseDetail, from, to int64, kind entities.RelationshipType) error {
	if from == to {
		return domain.Invalid("check connection", MsgSelfConnection, nil)
	}
	if detail.FindPerson(from) == nil || detail.FindPerson(to) == nil {
		return domain.Invalid("check connection", MsgUnknownEndpoint, nil)
	}
	// from becomes a child of to; a cycle appears if from is already an ancestor of to.
	if kind == entities.RelationChildOf && IsAncestor(detail.Relationships, from, to) {
		return domain.Invalid("check connection", MsgDescentCycle, nil)
	}
	return nil
}
