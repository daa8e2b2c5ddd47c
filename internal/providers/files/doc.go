// Package files implements the getFileList and rmFile capabilities over the
// sandbox root.
//
// getFileList options:
//   - path: directory to list, empty or "/" for the root
//   - pattern: doublestar glob matched against entry names (or relative
//     paths when recursive)
//   - recursive: walk the whole tree with fastwalk
//
// Entries report filePath relative to the root with a leading "/", size in
// bytes, createTime in unix seconds and fileType (file, directory, symlink
// or other).
package files
