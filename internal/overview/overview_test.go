package overview

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/require"

	"hostel/internal/redisx"
)

func TestGet_ServesFromCache(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	cached := Overview{TotalBookings: 3, Revenue: "250.00", RequestsByStatus: map[string]int{"pending": 2}}
	b, _ := json.Marshal(cached)
	mock.ExpectGet(fmt.Sprintf(redisx.KeyOverview, "all")).SetVal(string(b))

	rec := httptest.NewRecorder()
	Handlers{Rdb: rdb}.Get(rec, httptest.NewRequest(http.MethodGet, "/v1/overview", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var got Overview
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, cached, got)
	require.NoError(t, mock.ExpectationsWereMet())
}
