// Command blocktally counts the blocks of Minecraft worlds.
//
// Usage:
//
//	blocktally count world/region -n 20 --ignore air
//	blocktally info world/region/r.0.0.mca
//	blocktally dump world/region/r.0.0.mca 3 7
//	blocktally dump world/level.dat
package main

func main() {
	execute()
}
