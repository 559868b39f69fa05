/*
Copyright © 2020 the seaice authors.
This file is part of seaice.

seaice is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

seaice is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with seaice.  If not, see <http://www.gnu.org/licenses/>.
*/

// Command seaice is a command-line interface for comparing sea ice
// extent between the CDR and NIC sea ice products.
package main

import (
	"fmt"
	"os"

	"github.com/spatialmodel/seaice/seaiceutil"
)

func main() {
	if err := seaiceutil.Root.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(-1)
	}
}
