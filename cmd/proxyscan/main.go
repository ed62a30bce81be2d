// Package main provides the entry point for the proxyscan CLI.
//
// proxyscan validates SOCKS5 proxy candidates by tunneling a real HTTP
// request through each one, then ranks the survivors by latency and
// classifies how well they hide the caller's address:
//
//	proxyscan scan proxies.txt
//	proxyscan scan --collect --geo
//
// Run proxyscan --help for the full command surface.
package main

// main hands control to the cobra command tree.
func main() {
	Execute()
}
