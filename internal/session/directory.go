// Package session tracks which live connection, if any, currently
// speaks for a user.
package session

import "sync"

// Directory is the process-wide bidirectional mapping between stable
// user identifiers and volatile connection identifiers. It lives for
// the whole server lifetime and is safe for concurrent use.
type Directory struct {
	mu         sync.RWMutex
	connByUser map[string]string
	userByConn map[string]string
}

func NewDirectory() *Directory {
	return &Directory{
		connByUser: make(map[string]string),
		userByConn: make(map[string]string),
	}
}

// Bind associates user with conn. A user holds at most one binding:
// binding again overwrites the previous one and reports it so the
// caller can warn. The stale connection is not closed, it just stops
// receiving.
func (d *Directory) Bind(user, conn string) (prev string, replaced bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	prev, replaced = d.connByUser[user]
	if replaced {
		delete(d.userByConn, prev)
	}
	d.connByUser[user] = conn
	d.userByConn[conn] = user
	return prev, replaced
}

// Unbind removes both directions of a connection's binding. Stale
// connections that were already replaced unbind to nothing.
func (d *Directory) Unbind(conn string) (user string, ok bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	user, ok = d.userByConn[conn]
	if !ok {
		return "", false
	}
	delete(d.userByConn, conn)
	if d.connByUser[user] == conn {
		delete(d.connByUser, user)
	}
	return user, true
}

// ConnOf returns the live connection of a user.
func (d *Directory) ConnOf(user string) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	conn, ok := d.connByUser[user]
	return conn, ok
}

// UserOf returns the user a connection speaks for.
func (d *Directory) UserOf(conn string) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	user, ok := d.userByConn[conn]
	return user, ok
}

// Users returns every currently bound user.
func (d *Directory) Users() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	users := make([]string, 0, len(d.connByUser))
	for user := range d.connByUser {
		users = append(users, user)
	}
	return users
}
