// Package spr implements a reader for individual sprites in Tibia.spr files.
//
// An spr file is a header (signature and sprite count), a table of one
// offset per sprite, and the run-length encoded sprites themselves. Archive
// decodes sprites lazily into BGRA blocks and caches them.
//
// A higher level implementation needs to be used together with the dataset
// information on a thing's graphics layout in order to actually construct a
// full recognizable image; see package dat.
package spr
