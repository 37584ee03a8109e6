package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fulldump/goconfig"

	"github.com/fulldump/refinery/bootstrap"
	"github.com/fulldump/refinery/configuration"
)

var banner = `
           __ _                       
 _ __ ___ / _(_)_ __   ___ _ __ _   _ 
| '__/ _ \ |_| | '_ \ / _ \ '__| | | |
| | |  __/  _| | | | |  __/ |  | |_| |
|_|  \___|_| |_|_| |_|\___|_|   \__, |
                                |___/ 
                 version ` + bootstrap.VERSION + `
`

func main() {

	c := configuration.Default()
	goconfig.Read(&c)

	if c.Version {
		fmt.Println("Version:", bootstrap.VERSION)
		return
	}

	if c.ShowBanner {
		fmt.Println(banner)
	}

	if c.ShowConfig {
		e := json.NewEncoder(os.Stdout)
		e.SetIndent("", "    ")
		e.Encode(c)
	}

	start, _ := bootstrap.Bootstrap(&c)
	start()
}
