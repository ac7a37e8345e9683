// Package gallery is the persistence core for pixel-art records.
//
// # Overview
//
// A record is a small submitted drawing: a name, an author, an opaque
// cell-value mapping and a square size. Records live in an ordered
// key-value store (see package kv) under tuple keys, and are listed through
// cursor-linked pages.
//
// # Key generations
//
// Two key layouts coexist in one store:
//
//	("art", id)        legacy, written before records were partitioned by size
//	("art", size, id)  current, every new record
//
// Key components are type-tagged, so a stored key is classified by shape
// alone: a string in the second position is a legacy id, an integer is a
// size. Entries of any other shape are skipped with a warning.
//
// Lookups by id do not know which layout a record was written under. They
// probe the legacy key first and then one current key per known size. The
// known sizes come from a registry of ("art_size", size) markers that is
// written before the first record of each size, so the probe set always
// covers every stored record. Gallery.Migrate rewrites legacy entries into
// the current layout.
//
// # Usage Example
//
//	store := kv.NewStore(memkv.New(), kv.Options{Timeout: 2 * time.Second})
//	g := gallery.New(store, gallery.Options{})
//
//	rec, err := g.CreateRecord(ctx, gallery.CreateRequest{
//		Name:    "heart",
//		Author:  "ada",
//		Mapping: json.RawMessage(`{"0,0":"#f00"}`),
//	})
//
//	page, err := g.ListRecords(ctx, gallery.ListOptions{Limit: 10})
//	deleted, err := g.DeleteRecord(ctx, rec.ID)
package gallery
