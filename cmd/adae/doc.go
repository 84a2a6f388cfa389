// Command adae runs JavaScript against the audio engine and inspects it
// from the terminal.
//
//	adae run script.js      execute a script with the adae module loaded
//	adae repl               interactive JavaScript prompt
//	adae hosts              list hosts, devices and stream ranges
//	adae tracks             build an engine from config and list its tracks
//	adae monitor            live meter view with transport controls
//	adae config show|init   print the effective or default configuration
package main
