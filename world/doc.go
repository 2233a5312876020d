// Package world maps world chunk coordinates onto region files under a
// storage root and saves dirty chunks region by region.
//
// A world directory holds one file per region, named "{x}.{y}.{z}.region",
// and a "world.options" file recording the region and chunk dimensions the
// regions were written with. All file access goes through an afero.Fs, so a
// Store can run on the OS filesystem or entirely in memory.
package world
