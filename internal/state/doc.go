// Package state persists which clips have already been downloaded so
// interrupted runs can resume without redoing finished work.
package state
