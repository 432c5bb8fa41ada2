package main

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
	"storefront-cart/internal/cartsync"
)

var (
	credentialsBucket = []byte("cartctl")
	sessionKey        = []byte("session")
)

// savedSession is the CLI's login state. ID names the session cache entry
// and survives logouts.
type savedSession struct {
	ID         string `json:"id"`
	Token      string `json:"token,omitempty"`
	CustomerID string `json:"customerId,omitempty"`
	Email      string `json:"email,omitempty"`
}

func (s savedSession) engineSession() cartsync.Session {
	return cartsync.Session{Authenticated: s.Token != "", CustomerID: s.CustomerID, Token: s.Token}
}

// loadSession reads the saved session, creating one with a fresh id on
// first use.
func loadSession(db *bolt.DB) (savedSession, error) {
	var s savedSession
	err := db.View(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(credentialsBucket)
		if bkt == nil {
			return nil
		}
		raw := bkt.Get(sessionKey)
		if raw == nil {
			return nil
		}
		return json.Unmarshal(raw, &s)
	})
	if err != nil {
		return savedSession{}, fmt.Errorf("load session: %w", err)
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
		if err := saveSession(db, s); err != nil {
			return savedSession{}, err
		}
	}
	return s, nil
}

func saveSession(db *bolt.DB, s savedSession) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		bkt, err := tx.CreateBucketIfNotExists(credentialsBucket)
		if err != nil {
			return err
		}
		return bkt.Put(sessionKey, raw)
	})
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}
