package sqlinline

const QInsertGeneration = `--sql b895cc64-5421-494e-9c98-c61aa39d8ba1
insert into generations (user_id, image_url, prompt, title, model)
values ($1::uuid, $2::text, $3::text, $4::text, $5::text);
`

const QListGenerationsByUser = `--sql 686ee9c9-e9ad-4428-be8b-bcf46372e950
select id, user_id, image_url, prompt, title, model, created_at
from generations
where user_id = $1::uuid
order by created_at desc
limit $2::int offset $3::int;
`

const QSelectGenerationURLsByUser = `--sql 0f65a268-e378-45d0-a2b4-c38f81ad4705
select image_url from generations where user_id = $1::uuid;
`
