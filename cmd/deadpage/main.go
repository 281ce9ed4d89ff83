// Package main provides the deadpage CLI.
//
// deadpage watches the pages a Chrome instance loads, recognises not-found
// pages by their text, and reports their URLs to a collection endpoint.
//
// Usage:
//
//	deadpage serve
//	deadpage submit <url>
//	deadpage popup
//
// See --help for all available commands.
package main

func main() {
	Execute()
}
