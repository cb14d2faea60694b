package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE flows (
				id UUID PRIMARY KEY,
				partner_id VARCHAR(255) NOT NULL,
				name VARCHAR(255) NOT NULL,
				active BOOLEAN NOT NULL DEFAULT false,
				document JSONB NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
				deleted_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX idx_flows_partner_id ON flows(partner_id);
			CREATE INDEX idx_flows_active ON flows(active);
			CREATE INDEX idx_flows_updated_at ON flows(updated_at);
			CREATE INDEX idx_flows_deleted_at ON flows(deleted_at);
		`,
	}
}
