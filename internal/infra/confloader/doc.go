// Package confloader loads gridwire configuration with koanf.
//
// Sources are layered, later ones winning:
//
//  1. Defaults passed as a map (LoadMap)
//  2. A YAML file
//  3. GRIDWIRE_ environment variables
//
// Environment keys are lowercased and split on "_" into path segments;
// a doubled "__" keeps a literal underscore, so GRIDWIRE_NODE_DATA__DIR
// sets node.data_dir.
//
// Watcher follows one file with fsnotify and calls back on every write.
package confloader
