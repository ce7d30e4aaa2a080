package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShowCreateTable(t *testing.T) {
	tests := []struct {
		name string
		ddl  string
		want string
	}{
		{
			name: "options",
			ddl: `CREATE TABLE wp_options (
				option_id bigint(20) unsigned NOT NULL AUTO_INCREMENT,
				option_name varchar(191) NOT NULL DEFAULT '',
				option_value longtext NOT NULL,
				autoload varchar(20) NOT NULL DEFAULT 'yes',
				PRIMARY KEY (option_id),
				UNIQUE KEY option_name (option_name),
				KEY autoload (autoload)
			) DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_520_ci`,
			want: "CREATE TABLE `wp_options` (\n" +
				"  `option_id` bigint(20) unsigned NOT NULL AUTO_INCREMENT,\n" +
				"  `option_name` varchar(191) NOT NULL DEFAULT '',\n" +
				"  `option_value` longtext NOT NULL,\n" +
				"  `autoload` varchar(20) NOT NULL DEFAULT 'yes',\n" +
				"  PRIMARY KEY (`option_id`),\n" +
				"  UNIQUE KEY `option_name` (`option_name`),\n" +
				"  KEY `autoload` (`autoload`)\n" +
				") ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_520_ci",
		},
		{
			name: "constraints and nullable columns",
			ddl: `CREATE TABLE t (
				id int NOT NULL AUTO_INCREMENT PRIMARY KEY,
				note text,
				ts timestamp NULL DEFAULT NULL,
				code char(2) CHARACTER SET latin1,
				parent int,
				FOREIGN KEY (parent) REFERENCES p (id) ON DELETE SET NULL,
				CHECK (id > 0)
			) AUTO_INCREMENT=5 COMMENT='hi'`,
			want: "CREATE TABLE `t` (\n" +
				"  `id` int NOT NULL AUTO_INCREMENT,\n" +
				"  `note` text,\n" +
				"  `ts` timestamp NULL DEFAULT NULL,\n" +
				"  `code` char(2) CHARACTER SET latin1 COLLATE latin1_swedish_ci DEFAULT NULL,\n" +
				"  `parent` int DEFAULT NULL,\n" +
				"  PRIMARY KEY (`id`),\n" +
				"  KEY `parent` (`parent`),\n" +
				"  CONSTRAINT `t_ibfk_1` FOREIGN KEY (`parent`) REFERENCES `p` (`id`) ON DELETE SET NULL,\n" +
				"  CONSTRAINT `t_chk_1` CHECK ((id > 0))\n" +
				") ENGINE=InnoDB AUTO_INCREMENT=5 DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_0900_ai_ci COMMENT='hi'",
		},
		{
			name: "defaults and key parts",
			ddl: `CREATE TABLE d (
				created datetime NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
				flags bit(4) DEFAULT b'0101',
				body mediumtext COLLATE utf8mb4_bin,
				total decimal(6,2) NOT NULL DEFAULT '0',
				KEY body (body(20) DESC, total)
			) ROW_FORMAT=compressed`,
			want: "CREATE TABLE `d` (\n" +
				"  `created` datetime NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,\n" +
				"  `flags` bit(4) DEFAULT b'0101',\n" +
				"  `body` mediumtext COLLATE utf8mb4_bin,\n" +
				"  `total` decimal(6,2) NOT NULL DEFAULT '0.00',\n" +
				"  KEY `body` (`body`(20) DESC,`total`)\n" +
				") ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_0900_ai_ci ROW_FORMAT=COMPRESSED",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl := mustCreateTable(t, tt.ddl)
			got := ShowCreateTable(tbl)
			assert.Equal(t, tt.want, got)

			again := mustCreateTable(t, got)
			assert.Equal(t, tbl, again)
			assert.Equal(t, got, ShowCreateTable(again))
		})
	}
}
