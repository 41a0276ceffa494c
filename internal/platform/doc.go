// Package platform holds the filesystem calls whose behavior differs by
// operating system when materializing a project tree. On Unix it uses
// native symlinks and chmod. On Windows, where permission bits do not exist
// and symlinks may need developer mode, links to files fall back to copies.
package platform
