// Package distribution lays out an installable application tree and packs
// it into archives.
package distribution
