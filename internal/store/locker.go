package store

import (
	"sync"
)

// ClientLocker hands out one mutex per client id so that operations on
// different clients never contend with each other.
type ClientLocker struct {
	clientLocks map[string]*sync.Mutex // Map of client id → mutex
	mapMutex    sync.RWMutex           // Protects the map itself
}

// NewClientLocker creates an empty locker.
func NewClientLocker() *ClientLocker {
	return &ClientLocker{
		clientLocks: make(map[string]*sync.Mutex),
	}
}

// Lock locks the mutex for a specific client, creating it on first use.
func (cl *ClientLocker) Lock(clientID string) {
	cl.mapMutex.Lock()

	if cl.clientLocks[clientID] == nil {
		cl.clientLocks[clientID] = &sync.Mutex{}
	}

	clientMutex := cl.clientLocks[clientID]
	cl.mapMutex.Unlock()

	clientMutex.Lock()
}

// Unlock unlocks the mutex for a specific client.
func (cl *ClientLocker) Unlock(clientID string) {
	cl.mapMutex.RLock()
	clientMutex := cl.clientLocks[clientID]
	cl.mapMutex.RUnlock()

	if clientMutex != nil {
		clientMutex.Unlock()
	}
}
