// Command reqarr is the command-line client for the reqarr server.
package main

func main() {
	Execute()
}
