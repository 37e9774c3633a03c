package service

import (
	"github.com/garyjia/budget-approval/internal/domain/approval"
	"github.com/garyjia/budget-approval/internal/domain/entity"
)

// DirectoryConfig lists who belongs where. IDs are chat user ids.
type DirectoryConfig struct {
	Head       []string
	Finance    []string
	Payers     []string
	Whitelist  []string
	Initiators []string
	Names      map[string]string

	// OperatorChat receives storage failures and failed broadcasts.
	OperatorChat string
}

// Directory answers roster and access questions from static configuration.
type Directory struct {
	rosters      map[entity.Department][]string
	membership   map[string][]entity.Department
	whitelist    map[string]bool
	initiators   map[string]bool
	names        map[string]string
	operatorChat string
}

// NewDirectory builds the lookup tables once.
func NewDirectory(cfg DirectoryConfig) *Directory {
	d := &Directory{
		rosters: map[entity.Department][]string{
			entity.DepartmentHead:    cfg.Head,
			entity.DepartmentFinance: cfg.Finance,
			entity.DepartmentPayers:  cfg.Payers,
		},
		membership:   make(map[string][]entity.Department),
		whitelist:    toSet(cfg.Whitelist),
		initiators:   toSet(cfg.Initiators),
		names:        cfg.Names,
		operatorChat: cfg.OperatorChat,
	}
	for _, dept := range []entity.Department{entity.DepartmentHead, entity.DepartmentFinance, entity.DepartmentPayers} {
		for _, id := range d.rosters[dept] {
			d.membership[id] = append(d.membership[id], dept)
		}
	}
	return d
}

func toSet(ids []string) map[string]bool {
	m := make(map[string]bool, len(ids))
	for _, id := range ids {
		m[id] = true
	}
	return m
}

// Members returns the roster of a department.
func (d *Directory) Members(dept entity.Department) []string {
	return d.rosters[dept]
}

// IsMember reports whether userID is on the department roster.
func (d *Directory) IsMember(userID string, dept entity.Department) bool {
	for _, m := range d.membership[userID] {
		if m == dept {
			return true
		}
	}
	return false
}

// Allowed reports whether userID may talk to the bot at all. Roster members
// and initiators are always allowed.
func (d *Directory) Allowed(userID string) bool {
	return d.whitelist[userID] || d.initiators[userID] || len(d.membership[userID]) > 0
}

// CanInitiate reports whether userID may submit records. An empty initiator
// list lets every allowed user submit.
func (d *Directory) CanInitiate(userID string) bool {
	if len(d.initiators) == 0 {
		return d.Allowed(userID)
	}
	return d.initiators[userID]
}

// Name returns the configured display name or "".
func (d *Directory) Name(userID string) string {
	return d.names[userID]
}

// OperatorChat returns the chat paged on failures.
func (d *Directory) OperatorChat() string {
	return d.operatorChat
}

// ActorFor resolves userID acting in dept. The department is cleared when the
// user is not on that roster so the state machine reports it as unauthorized.
func (d *Directory) ActorFor(userID string, dept entity.Department) entity.Actor {
	a := entity.Actor{ID: userID, Name: d.names[userID]}
	if d.IsMember(userID, dept) {
		a.Department = dept
	}
	return a
}

// ActorForStatus resolves userID for a record in status. Users on several
// rosters act as the department the record is waiting for when they can;
// otherwise their first roster is used.
func (d *Directory) ActorForStatus(userID string, status entity.Status) entity.Actor {
	if dept, ok := approval.ExpectedDepartment(status); ok && d.IsMember(userID, dept) {
		return d.ActorFor(userID, dept)
	}
	a := entity.Actor{ID: userID, Name: d.names[userID]}
	if depts := d.membership[userID]; len(depts) > 0 {
		a.Department = depts[0]
	}
	return a
}
