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

package seaice

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/ctessum/requestcache"
	"github.com/ctessum/sparse"
)

// A CachingSource wraps a GridSource with an in-memory cache so that a
// run needing the same daily grid more than once (for example the
// extent sweep and the monthly composites over the same date range)
// only loads and rasterizes it once.
type CachingSource struct {
	GridSource

	// CacheSize is the number of daily grids to hold in memory.
	// Zero means DefaultCacheSize.
	CacheSize int

	cache     *requestcache.Cache
	cacheInit sync.Once
}

// DefaultCacheSize is the number of daily grids a CachingSource holds
// in memory when no size is configured.
const DefaultCacheSize = 40

// Grid implements the GridSource interface.
func (s *CachingSource) Grid(date time.Time) (*sparse.DenseArray, error) {
	s.cacheInit.Do(func() {
		n := s.CacheSize
		if n <= 0 {
			n = DefaultCacheSize
		}
		s.cache = requestcache.NewCache(func(ctx context.Context, request interface{}) (interface{}, error) {
			return s.GridSource.Grid(request.(time.Time))
		}, runtime.GOMAXPROCS(-1),
			requestcache.Deduplicate(), requestcache.Memory(n))
	})
	req := s.cache.NewRequest(context.TODO(), date,
		fmt.Sprintf("%s_%s", s.Product(), date.Format(inDateFormat)))
	result, err := req.Result()
	if err != nil {
		return nil, err
	}
	return result.(*sparse.DenseArray), nil
}
