// Package qbittorrent submits accepted releases to a qBittorrent
// instance over its Web API v2. Sessions use cookie authentication and
// re-login transparently when they expire. The PathMapper bridges save
// paths between this process and qBittorrent when the two see storage
// under different mount points.
package qbittorrent
