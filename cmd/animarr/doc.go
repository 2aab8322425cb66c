// Command animarr runs the acquisition service and provides a small
// operator CLI over its HTTP API.
package main
