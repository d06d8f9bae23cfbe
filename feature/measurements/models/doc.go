// Package models holds the gorm models of the run store.
//
// A Run is the summary of one extraction. Conflicts and Incompletes hang off it by RunID
// and are written in the same transaction.
package models
