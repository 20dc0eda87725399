// Command soundux lists, plays and controls sounds.
package main

func main() {
	Execute()
}
