package diag

import (
	"fmt"
	"log/slog"

	_ "github.com/go-sql-driver/mysql"
	sqlx "github.com/jmoiron/sqlx" //make alias name the package to sqlx
)

func ConnectToDatabase(user string, pass string, host string, dbname string) (*sqlx.DB, error) {
	port := "3306"
	dbURI := fmt.Sprintf("%s:%s@(%s:%s)/%s?parseTime=true", user, pass, host, port, dbname)
	db, err := sqlx.Connect("mysql", dbURI)
	return db, err
}

type channelMapEntry struct {
	ElecID         int `db:"ElecID"`
	OfflineChannel int `db:"OfflineChannel"`
}

func getChannelMapFromDB(db *sqlx.DB, runNumber int, logger *slog.Logger) (map[int]int, error) {
	query := "SELECT ElecID, OfflineChannel FROM SSPChannelMapping WHERE MinRun <= %d and MaxRun >= %d ORDER BY ElecID"
	query = fmt.Sprintf(query, runNumber, runNumber)

	logger.Debug("Channel mapping read from DB", "module", "database")
	logger.Debug(fmt.Sprintf("Query: %s", query), "module", "database")

	rows, err := db.Queryx(query)
	if err != nil {
		return nil, fmt.Errorf("error querying database: %w", err)
	}

	channelMap := make(map[int]int)
	for rows.Next() {
		result := channelMapEntry{}
		err := rows.StructScan(&result)
		if err != nil {
			return nil, fmt.Errorf("error scanning DB row: %w", err)
		}
		channelMap[result.ElecID] = result.OfflineChannel
	}
	return channelMap, nil
}
