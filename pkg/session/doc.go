/*
Package session coordinates concurrent access to open documents.

It guards each document with a reference-counted lock (optionally backed by
a distributed locker across replicas) and keeps an editor cache so undo
history survives between calls: stores persist only the present snapshot,
the cached editor holds the past and future.
*/
package session
